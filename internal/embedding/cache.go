package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultBatchSize is the number of texts encoded per backend call
	// when building the index.
	DefaultBatchSize = 32

	// interBatchPause keeps bulk computation from saturating the backend.
	interBatchPause = 100 * time.Millisecond
)

// ErrCacheLoad indicates the persisted index is missing or unusable.
// Recovered locally by recomputation, never surfaced to callers.
var ErrCacheLoad = errors.New("embedding cache load failed")

// Index maps template keys to embedding vectors. It records the model that
// produced the vectors so a stale cache from a different model is rejected
// rather than yielding meaningless similarity scores.
type Index struct {
	Model   string               `json:"model"`
	Vectors map[string][]float32 `json:"vectors"`
}

// Get returns the vector for a key.
func (idx *Index) Get(key string) ([]float32, bool) {
	v, ok := idx.Vectors[key]
	return v, ok
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.Vectors)
}

// Entry is one (key, text) pair to index.
type Entry struct {
	Key  string
	Text string
}

// Cache persists the template embedding index across restarts.
type Cache struct {
	path   string
	logger *slog.Logger
}

// NewCache creates a cache backed by the given file path.
func NewCache(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{path: path, logger: logger}
}

// Load reads a previously persisted index. Returns ErrCacheLoad (wrapped)
// if the file is absent, corrupt, or was produced by a different model.
func (c *Cache) Load(model string) (*Index, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheLoad, err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheLoad, err)
	}
	if idx.Model != model {
		return nil, fmt.Errorf("%w: cached model %q does not match %q", ErrCacheLoad, idx.Model, model)
	}
	if idx.Vectors == nil {
		idx.Vectors = make(map[string][]float32)
	}
	return &idx, nil
}

// Save persists the index with atomic replace-on-write so a concurrent
// reader never sees a partial file.
func (c *Cache) Save(idx *Index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".embeddings-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// LoadOrCompute returns the cached index if valid, otherwise computes
// embeddings for every entry in batches and persists the result.
// Persistence failure is logged, not fatal.
func (c *Cache) LoadOrCompute(ctx context.Context, p Provider, entries []Entry, batchSize int) (*Index, error) {
	if idx, err := c.Load(p.Model()); err == nil {
		c.logger.Info("loaded cached embeddings", "entries", idx.Len(), "model", idx.Model)
		return idx, nil
	} else {
		c.logger.Warn("embedding cache unusable, recomputing", "error", err)
	}

	idx, err := ComputeIndex(ctx, p, entries, batchSize)
	if err != nil {
		return nil, err
	}

	if err := c.Save(idx); err != nil {
		c.logger.Warn("failed to persist embedding cache", "error", err)
	} else {
		c.logger.Info("saved embeddings to cache", "entries", idx.Len(), "path", c.path)
	}
	return idx, nil
}

// ComputeIndex encodes all entries in batches with a small pause between
// batches. The full index is always rebuilt, never patched incrementally.
func ComputeIndex(ctx context.Context, p Provider, entries []Entry, batchSize int) (*Index, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	idx := &Index{
		Model:   p.Model(),
		Vectors: make(map[string][]float32, len(entries)),
	}

	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))
		batch := entries[i:end]

		texts := make([]string, len(batch))
		for j, e := range batch {
			texts[j] = e.Text
		}

		vectors, err := p.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("batch %d-%d: got %d vectors for %d texts", i, end, len(vectors), len(batch))
		}
		for j, e := range batch {
			idx.Vectors[e.Key] = vectors[j]
		}

		if end < len(entries) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interBatchPause):
			}
		}
	}

	return idx, nil
}
