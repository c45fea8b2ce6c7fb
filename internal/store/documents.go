package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"loom/internal/embedding"
)

// Document is a stored text with optional metadata.
type Document struct {
	ID        int64
	Content   string
	Metadata  map[string]any
	CreatedAt time.Time
}

// SearchResult is a document with its similarity score. Keyword-only
// fallback hits carry a score of 0.
type SearchResult struct {
	Document
	Score float64
}

// embedBatchWorkers bounds concurrent embedding calls during AddBatch.
const embedBatchWorkers = 4

// Add embeds content and stores it. Without an engine the document is
// stored keyword-only.
func (s *Store) Add(ctx context.Context, content string, metadata map[string]any) (int64, error) {
	engine := s.Engine()

	var embeddingJSON any
	if engine != nil {
		vec, err := engine.Embed(ctx, content)
		if err != nil {
			return 0, fmt.Errorf("failed to generate embedding: %w", err)
		}
		data, err := json.Marshal(vec)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize embedding: %w", err)
		}
		embeddingJSON = string(data)
	}

	metaJSON, err := encodeMetadata(metadata)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (content, embedding, metadata) VALUES (?, ?, ?)",
		content, embeddingJSON, metaJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return res.LastInsertId()
}

// AddBatch embeds and stores multiple documents. Embeddings are
// generated concurrently with a bounded worker count, then inserted in
// a single transaction.
func (s *Store) AddBatch(ctx context.Context, contents []string, metadatas []map[string]any) ([]int64, error) {
	if len(metadatas) != 0 && len(metadatas) != len(contents) {
		return nil, fmt.Errorf("metadata count %d does not match content count %d", len(metadatas), len(contents))
	}

	engine := s.Engine()
	vectors := make([]string, len(contents))

	if engine != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(embedBatchWorkers)
		for i, content := range contents {
			g.Go(func() error {
				vec, err := engine.Embed(gctx, content)
				if err != nil {
					return fmt.Errorf("embed document %d: %w", i, err)
				}
				data, err := json.Marshal(vec)
				if err != nil {
					return err
				}
				vectors[i] = string(data)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO documents (content, embedding, metadata) VALUES (?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(contents))
	for i, content := range contents {
		var meta map[string]any
		if len(metadatas) > 0 {
			meta = metadatas[i]
		}
		metaJSON, err := encodeMetadata(meta)
		if err != nil {
			return nil, err
		}

		var embeddingJSON any
		if vectors[i] != "" {
			embeddingJSON = vectors[i]
		}
		res, err := stmt.ExecContext(ctx, content, embeddingJSON, metaJSON)
		if err != nil {
			return nil, fmt.Errorf("insert document %d: %w", i, err)
		}
		id, _ := res.LastInsertId()
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch insert: %w", err)
	}

	s.logger.Debug("batch stored", zap.Int("documents", len(ids)))
	return ids, nil
}

// Search ranks stored documents against the query by cosine similarity
// and returns at most k results in descending score order. Without an
// engine it falls back to a keyword LIKE scan.
func (s *Store) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = 10
	}

	engine := s.Engine()
	if engine == nil {
		return s.searchKeyword(ctx, query, k)
	}

	queryVec, err := engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, embedding, metadata, created_at FROM documents WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			doc           Document
			embeddingJSON string
			metaJSON      sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &embeddingJSON, &metaJSON, &doc.CreatedAt); err != nil {
			return nil, err
		}

		var vec []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &vec); err != nil {
			s.logger.Warn("skipping document with corrupt embedding", zap.Int64("id", doc.ID))
			continue
		}
		score, err := embedding.CosineSimilarity(queryVec, vec)
		if err != nil {
			continue // dimension mismatch, engine changed
		}

		doc.Metadata = decodeMetadata(metaJSON)
		results = append(results, SearchResult{Document: doc, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *Store) searchKeyword(ctx context.Context, query string, k int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, metadata, created_at FROM documents WHERE content LIKE ? ORDER BY created_at DESC LIMIT ?",
		"%"+query+"%", k)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			doc      Document
			metaJSON sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metaJSON, &doc.CreatedAt); err != nil {
			return nil, err
		}
		doc.Metadata = decodeMetadata(metaJSON)
		results = append(results, SearchResult{Document: doc})
	}
	return results, rows.Err()
}

// Stats reports document counts and engine info.
func (s *Store) Stats() (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, embedded int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&total); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM documents WHERE embedding IS NOT NULL").Scan(&embedded); err != nil {
		return nil, err
	}

	stats := map[string]any{
		"total_documents":    total,
		"with_embeddings":    embedded,
		"without_embeddings": total - embedded,
	}
	if s.engine != nil {
		stats["engine"] = s.engine.Name()
		stats["dimensions"] = s.engine.Dimensions()
	}
	return stats, nil
}

func encodeMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

func decodeMetadata(metaJSON sql.NullString) map[string]any {
	if !metaJSON.Valid || metaJSON.String == "" {
		return nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metaJSON.String), &meta); err != nil {
		return nil
	}
	return meta
}
