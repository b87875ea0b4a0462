// Package ingest loads concepts from external sources into storage.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lynxverse/stellar/internal/models"
)

// Source yields concept inputs from some external location.
type Source interface {
	// Read returns every concept the source holds.
	Read() ([]*models.ConceptInput, error)
	// Name identifies the source in logs and in the concepts' Source field.
	Name() string
}

// FileSource reads concepts from a JSONL file, one ConceptInput per line.
// Blank lines are skipped; a malformed line fails the whole read with its
// line number so bad exports are caught early rather than half-ingested.
type FileSource struct {
	path string
}

// NewFileSource returns a source reading from the JSONL file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.path }

// Read parses the whole file.
func (s *FileSource) Read() ([]*models.ConceptInput, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	var out []*models.ConceptInput
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var input models.ConceptInput
		if err := json.Unmarshal(raw, &input); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if input.Title == "" {
			return nil, fmt.Errorf("line %d: %w: missing title", line, models.ErrInvalidInput)
		}
		out = append(out, &input)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return out, nil
}
