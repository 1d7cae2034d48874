package engine

import "testing"

func TestEmbedIsDeterministic(t *testing.T) {
	embedder := NewDeterministicEmbedder(EmbeddingDimension)

	text := "Incident: High CPU usage on web-prod-01\nCategory: Performance\n"
	first := embedder.Embed(text)
	second := embedder.Embed(text)

	if len(first) != EmbeddingDimension {
		t.Fatalf("expected dimension %d, got %d", EmbeddingDimension, len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("vectors differ at index %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestEmbedDifferentTextDiffers(t *testing.T) {
	embedder := NewDeterministicEmbedder(EmbeddingDimension)

	a := embedder.Embed("database connection pool exhausted")
	b := embedder.Embed("memory leak detected on app-server-01")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected distinct vectors for distinct text")
	}
}

func TestEmbedderDimensionDefault(t *testing.T) {
	embedder := NewDeterministicEmbedder(0)
	if embedder.Dimension() != EmbeddingDimension {
		t.Fatalf("expected default dimension %d, got %d", EmbeddingDimension, embedder.Dimension())
	}

	custom := NewDeterministicEmbedder(128)
	if got := len(custom.Embed("some text")); got != 128 {
		t.Fatalf("expected 128-dim vector, got %d", got)
	}
}
