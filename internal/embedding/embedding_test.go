package embedding

import (
	"context"
	"math"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCacheLRUOrder(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a") // a is now newest
	c.Set("c", []float32{3})
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted, not a")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive after recent use")
	}
}

func TestSimpleTokenizer(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("hello world", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths = %d, %d, %d", len(ids), len(attn), len(types))
	}
	if ids[0] != tokenCLS {
		t.Errorf("expected CLS at position 0, got %d", ids[0])
	}
	if ids[3] != tokenSEP {
		t.Errorf("expected SEP after 2 words, got %d", ids[3])
	}
	if attn[0] != 1 || attn[3] != 1 || attn[4] != 0 {
		t.Errorf("attention mask wrong: %v", attn)
	}
	for i := 1; i <= 2; i++ {
		if ids[i] < 0 || ids[i] >= vocabSize {
			t.Errorf("token %d out of vocabulary range: %d", i, ids[i])
		}
	}
}

func TestSimpleTokenizerTruncates(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, _, _ := tok.Tokenize("a b c d e f g h", 4)
	if len(ids) != 4 {
		t.Fatalf("len = %d", len(ids))
	}
	if ids[0] != tokenCLS {
		t.Error("CLS missing after truncation")
	}
}

func TestHashStringDeterministic(t *testing.T) {
	if HashString("quantum") != HashString("quantum") {
		t.Error("hash must be stable")
	}
	if HashString("quantum") == HashString("entanglement") {
		t.Error("distinct words should hash differently")
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()

	a1, err := e.Embed(ctx, "black hole")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	a2, _ := e.Embed(ctx, "black hole")
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("same text produced different vectors at %d", i)
		}
	}

	b, _ := e.Embed(ctx, "renaissance art")
	same := true
	for i := range a1 {
		if a1[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct texts produced identical vectors")
	}
}

func TestMockEmbedderUnitNorm(t *testing.T) {
	e := NewMockEmbedder(32)
	vec, err := e.Embed(context.Background(), "philosophy of mind")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-5 {
		t.Errorf("norm = %v, want 1", math.Sqrt(sum))
	}
}

func TestMockEmbedderBatch(t *testing.T) {
	e := NewMockEmbedder(8)
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d", len(out))
	}
	for i, vec := range out {
		if len(vec) != 8 {
			t.Errorf("vector %d has dimension %d", i, len(vec))
		}
	}
}
