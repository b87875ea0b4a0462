//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/lynxverse/stellar/pkg/utils"
)

// ONNXEmbedder runs a sentence-transformer model through ONNX Runtime.
// Requires CGO and the onnxruntime shared library at runtime.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	dimensions int
	maxTokens  int
	cache      *Cache
	tokenizer  Tokenizer

	// Tensors are allocated once and reused across Run calls; the mutex
	// serializes access to their backing buffers.
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
	mu            sync.Mutex
}

// NewONNXEmbedder loads the model at modelPath and prepares a reusable session.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens, cacheSize int) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	tokenizer := &SimpleTokenizer{}
	ids, mask, types := tokenizer.Tokenize("", maxTokens)

	var tensors []ort.ArbitraryTensor
	destroyAll := func() {
		for _, t := range tensors {
			_ = t.Destroy()
		}
	}
	makeInt64 := func(name string, data []int64) (*ort.Tensor[int64], error) {
		t, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), data)
		if err != nil {
			destroyAll()
			return nil, fmt.Errorf("failed to create %s tensor: %w", name, err)
		}
		tensors = append(tensors, t)
		return t, nil
	}

	idsTensor, err := makeInt64("input_ids", ids)
	if err != nil {
		return nil, err
	}
	maskTensor, err := makeInt64("attention_mask", mask)
	if err != nil {
		return nil, err
	}
	typesTensor, err := makeInt64("token_type_ids", types)
	if err != nil {
		return nil, err
	}
	outTensor, err := ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions))
	if err != nil {
		destroyAll()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	tensors = append(tensors, outTensor)

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{idsTensor, maskTensor, typesTensor},
		[]ort.ArbitraryTensor{outTensor},
		nil,
	)
	if err != nil {
		destroyAll()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXEmbedder{
		session:       session,
		dimensions:    dimensions,
		maxTokens:     maxTokens,
		cache:         NewCache(cacheSize),
		tokenizer:     tokenizer,
		inputIDs:      idsTensor,
		attentionMask: maskTensor,
		tokenTypeIDs:  typesTensor,
		output:        outTensor,
	}, nil
}

// Embed returns the normalized embedding for text, consulting the cache first.
func (e *ONNXEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		return vec, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.inputIDs.GetData(), ids)
	copy(e.attentionMask.GetData(), mask)
	copy(e.tokenTypeIDs.GetData(), types)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	vec := make([]float32, e.dimensions)
	copy(vec, e.output.GetData()[:e.dimensions])
	utils.NormalizeL2(vec)

	e.cache.Set(text, vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int { return e.dimensions }

// Close destroys the session and its tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.inputIDs != nil {
		_ = e.inputIDs.Destroy()
		e.inputIDs = nil
	}
	if e.attentionMask != nil {
		_ = e.attentionMask.Destroy()
		e.attentionMask = nil
	}
	if e.tokenTypeIDs != nil {
		_ = e.tokenTypeIDs.Destroy()
		e.tokenTypeIDs = nil
	}
	if e.output != nil {
		_ = e.output.Destroy()
		e.output = nil
	}
	return err
}
