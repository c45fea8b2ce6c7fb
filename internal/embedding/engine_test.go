package embedding

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"loom/internal/config"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1, false},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, false},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, false},
		{"zero magnitude", []float32{0, 0}, []float32{1, 1}, 0, false},
		{"dimension mismatch", []float32{1}, []float32{1, 2}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CosineSimilarity: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("CosineSimilarity=%v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindTopK(t *testing.T) {
	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},       // orthogonal
		{1, 0},       // identical
		{0.9, 0.1},   // close
		{-1, 0},      // opposite
		{1, 0, 0, 0}, // wrong dimension, skipped
	}

	results := FindTopK(query, corpus, 2)
	if len(results) != 2 {
		t.Fatalf("FindTopK returned %d results, want 2", len(results))
	}
	if results[0].Index != 1 {
		t.Fatalf("best match index=%d, want 1", results[0].Index)
	}
	if results[1].Index != 2 {
		t.Fatalf("second match index=%d, want 2", results[1].Index)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Fatal("results not ordered by descending similarity")
	}
}

func TestFindTopK_DefaultK(t *testing.T) {
	query := []float32{1}
	corpus := make([][]float32, 25)
	for i := range corpus {
		corpus[i] = []float32{float32(i)}
	}
	results := FindTopK(query, corpus, 0)
	if len(results) != 10 {
		t.Fatalf("default k should cap at 10, got %d", len(results))
	}
}

func TestNewEngine_UnsupportedProvider(t *testing.T) {
	_, err := NewEngine(&config.EmbeddingConfig{Provider: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNewEngine_GenAIRequiresKey(t *testing.T) {
	_, err := NewEngine(&config.EmbeddingConfig{Provider: "genai"})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestOllamaEngine_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"embedding": [0.1, 0.2, 0.3]}`))
	}))
	defer srv.Close()

	engine, err := NewOllamaEngine(srv.URL, "embeddinggemma")
	if err != nil {
		t.Fatalf("NewOllamaEngine: %v", err)
	}

	vec, err := engine.Embed(context.Background(), "Delhi is the capital of India")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("embedding length=%d, want 3", len(vec))
	}
}

func TestOllamaEngine_EmbedBatchSequential(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"embedding": [1, 0]}`))
	}))
	defer srv.Close()

	engine, _ := NewOllamaEngine(srv.URL, "")
	docs := []string{
		"Delhi is the capital of India",
		"Kolkata is the capital of West Bengal",
		"Paris is the capital of France",
	}
	vecs, err := engine.EmbedBatch(context.Background(), docs)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 3 || calls != 3 {
		t.Fatalf("EmbedBatch: %d vectors, %d calls", len(vecs), calls)
	}
}

func TestOllamaEngine_EmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding": []}`))
	}))
	defer srv.Close()

	engine, _ := NewOllamaEngine(srv.URL, "")
	if _, err := engine.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}
