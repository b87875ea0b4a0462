// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lynxverse/stellar/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS concepts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		summary TEXT,
		category TEXT,
		source TEXT,
		url TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_concepts_category ON concepts(category);

	CREATE TABLE IF NOT EXISTS embeddings (
		concept_id TEXT PRIMARY KEY,
		vector BLOB NOT NULL,
		dimensions INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (concept_id) REFERENCES concepts(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS edges (
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		edge_type TEXT NOT NULL,
		weight REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (source_id, target_id, edge_type)
	);

	CREATE TABLE IF NOT EXISTS node_positions (
		concept_id TEXT PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL,
		z REAL NOT NULL,
		cluster_id TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (concept_id) REFERENCES concepts(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS rebuild_status (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		state TEXT NOT NULL,
		total_concepts INTEGER DEFAULT 0,
		total_edges INTEGER DEFAULT 0,
		total_positions INTEGER DEFAULT 0,
		error_message TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateConcept inserts a concept and its embedding (when present) in one transaction.
func (s *SQLiteStorage) CreateConcept(ctx context.Context, c *models.Concept) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO concepts (id, title, summary, category, source, url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			category = excluded.category,
			updated_at = excluded.updated_at`,
		c.ID, c.Title, c.Summary, c.Category, c.Source, c.URL, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if len(c.Embedding) > 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO embeddings (concept_id, vector, dimensions, created_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (concept_id) DO UPDATE SET
				vector = excluded.vector,
				dimensions = excluded.dimensions`,
			c.ID, vecToBytes(c.Embedding), len(c.Embedding), now,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetConcept returns a concept by ID, embedding included when stored.
func (s *SQLiteStorage) GetConcept(ctx context.Context, id string) (*models.Concept, error) {
	var c models.Concept
	var vec []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT c.id, c.title, c.summary, c.category, c.source, c.url, c.created_at, c.updated_at, e.vector
		 FROM concepts c LEFT JOIN embeddings e ON c.id = e.concept_id
		 WHERE c.id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.Summary, &c.Category, &c.Source, &c.URL, &c.CreatedAt, &c.UpdatedAt, &vec)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("concept not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	if len(vec) > 0 {
		c.Embedding = bytesToVec(vec)
	}
	return &c, nil
}

// DeleteConcept removes a concept; its embedding and position cascade.
func (s *SQLiteStorage) DeleteConcept(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM concepts WHERE id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE source_id = ? OR target_id = ?`, id, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListConcepts returns concepts with offset and limit, without embeddings.
func (s *SQLiteStorage) ListConcepts(ctx context.Context, offset, limit int) ([]*models.Concept, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, summary, category, source, url, created_at, updated_at
		 FROM concepts ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var concepts []*models.Concept
	for rows.Next() {
		var c models.Concept
		if err := rows.Scan(&c.ID, &c.Title, &c.Summary, &c.Category, &c.Source, &c.URL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		concepts = append(concepts, &c)
	}
	return concepts, rows.Err()
}

// ListConceptsWithEmbeddings returns all concepts that have embeddings, ordered by id.
func (s *SQLiteStorage) ListConceptsWithEmbeddings(ctx context.Context) ([]*models.Concept, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.summary, c.category, c.source, c.url, c.created_at, c.updated_at, e.vector
		 FROM concepts c JOIN embeddings e ON c.id = e.concept_id
		 ORDER BY c.id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var concepts []*models.Concept
	for rows.Next() {
		var c models.Concept
		var vec []byte
		if err := rows.Scan(&c.ID, &c.Title, &c.Summary, &c.Category, &c.Source, &c.URL, &c.CreatedAt, &c.UpdatedAt, &vec); err != nil {
			return nil, err
		}
		c.Embedding = bytesToVec(vec)
		concepts = append(concepts, &c)
	}
	return concepts, rows.Err()
}

// ReplaceEdges replaces the stored edge set wholesale in one transaction:
// all existing edges are cleared first, then the new set is inserted. An
// empty slice leaves the table empty, so a rebuild that produced no edges
// does not keep the previous graph alive.
func (s *SQLiteStorage) ReplaceEdges(ctx context.Context, edges []models.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (source_id, target_id, edge_type, weight, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (source_id, target_id, edge_type) DO UPDATE SET weight = excluded.weight`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.Source, e.Target, string(e.Type), e.Weight, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListEdges returns edges of the given type, or all edges when edgeType is empty.
func (s *SQLiteStorage) ListEdges(ctx context.Context, edgeType models.EdgeType) ([]models.Edge, error) {
	query := `SELECT source_id, target_id, edge_type, weight FROM edges`
	args := []interface{}{}
	if edgeType != "" {
		query += ` WHERE edge_type = ?`
		args = append(args, string(edgeType))
	}
	query += ` ORDER BY source_id, target_id, edge_type`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []models.Edge
	for rows.Next() {
		var e models.Edge
		var t string
		if err := rows.Scan(&e.Source, &e.Target, &t, &e.Weight); err != nil {
			return nil, err
		}
		e.Type = models.EdgeType(t)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// UpsertPositions inserts or replaces positions keyed by concept id, in one transaction.
func (s *SQLiteStorage) UpsertPositions(ctx context.Context, positions []models.Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO node_positions (concept_id, x, y, z, cluster_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (concept_id) DO UPDATE SET
			x = excluded.x, y = excluded.y, z = excluded.z,
			cluster_id = excluded.cluster_id, updated_at = excluded.updated_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range positions {
		if _, err := stmt.ExecContext(ctx, p.ConceptID, p.X, p.Y, p.Z, p.ClusterID, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListPositions returns all stored positions ordered by concept id.
func (s *SQLiteStorage) ListPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT concept_id, x, y, z, cluster_id FROM node_positions ORDER BY concept_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		var cluster sql.NullString
		if err := rows.Scan(&p.ConceptID, &p.X, &p.Y, &p.Z, &cluster); err != nil {
			return nil, err
		}
		p.ClusterID = cluster.String
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// UpdateRebuildStatus replaces the single rebuild status row.
func (s *SQLiteStorage) UpdateRebuildStatus(ctx context.Context, status *models.RebuildStatus) error {
	status.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rebuild_status (id, state, total_concepts, total_edges, total_positions, error_message, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			total_concepts = excluded.total_concepts,
			total_edges = excluded.total_edges,
			total_positions = excluded.total_positions,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at`,
		status.State, status.TotalConcepts, status.TotalEdges, status.TotalPositions,
		status.ErrorMessage, status.UpdatedAt,
	)
	return err
}

// GetRebuildStatus returns the current rebuild status; pending when no rebuild has run.
func (s *SQLiteStorage) GetRebuildStatus(ctx context.Context) (*models.RebuildStatus, error) {
	var st models.RebuildStatus
	var errMsg sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT state, total_concepts, total_edges, total_positions, error_message, updated_at
		 FROM rebuild_status WHERE id = 1`,
	).Scan(&st.State, &st.TotalConcepts, &st.TotalEdges, &st.TotalPositions, &errMsg, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.RebuildStatus{State: models.RebuildStatePending}, nil
	}
	if err != nil {
		return nil, err
	}
	st.ErrorMessage = errMsg.String
	return &st, nil
}

// CountConcepts returns the total number of concepts.
func (s *SQLiteStorage) CountConcepts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM concepts`).Scan(&count)
	return count, err
}

// CountEdges returns the total number of edges across all types.
func (s *SQLiteStorage) CountEdges(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&count)
	return count, err
}

// CountPositions returns the total number of stored positions.
func (s *SQLiteStorage) CountPositions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM node_positions`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// vecToBytes encodes a float32 vector as little-endian bytes for BLOB storage.
func vecToBytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], math.Float32bits(f))
	}
	return out
}

// bytesToVec decodes a little-endian BLOB back into a float32 vector.
func bytesToVec(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out
}
