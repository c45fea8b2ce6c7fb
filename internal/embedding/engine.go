// Package embedding generates vector embeddings for text and compares
// them. Two backends: Ollama (local) and Google GenAI (cloud).
package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"loom/internal/config"
	"loom/internal/logging"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings.
	Dimensions() int

	// Name returns the engine name.
	Name() string
}

// NewEngine creates an embedding engine from configuration.
func NewEngine(cfg *config.EmbeddingConfig) (Engine, error) {
	if cfg == nil {
		cfg = config.DefaultEmbeddingConfig()
	}
	logger := logging.For(logging.CategoryEmbedding)

	switch cfg.Provider {
	case "ollama":
		logger.Debug("initializing ollama embedding engine",
			zap.String("endpoint", cfg.OllamaEndpoint),
			zap.String("model", cfg.OllamaModel))
		return NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel)

	case "genai":
		logger.Debug("initializing genai embedding engine",
			zap.String("model", cfg.GenAIModel),
			zap.String("task_type", cfg.TaskType))
		return NewGenAIEngine(cfg.GenAIAPIKey, cfg.GenAIModel, cfg.TaskType)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'ollama' or 'genai')", cfg.Provider)
	}
}

// CosineSimilarity calculates the cosine similarity between two
// vectors. Returns a value in [-1, 1]; zero-magnitude vectors yield 0
// without error.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i] * b[i])
		aMag += float64(a[i] * a[i])
		bMag += float64(b[i] * b[i])
	}

	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}

// SimilarityResult is one hit of a top-k search.
type SimilarityResult struct {
	Index      int
	Similarity float64
}

// FindTopK returns the indices of the k corpus vectors most similar to
// the query, ordered by descending similarity. Corpus vectors with a
// mismatched dimension are skipped.
func FindTopK(query []float32, corpus [][]float32, k int) []SimilarityResult {
	if k <= 0 {
		k = 10
	}

	results := make([]SimilarityResult, 0, len(corpus))
	for i, vec := range corpus {
		similarity, err := CosineSimilarity(query, vec)
		if err != nil {
			continue
		}
		results = append(results, SimilarityResult{Index: i, Similarity: similarity})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
