package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"propertymatch/internal/model"
)

// constantEmbedder maps every text to the same vector, so every record is
// equally similar to every query and only the hard filters decide.
type constantEmbedder struct{}

func (constantEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.5, 0.5, 0.5}, nil
}

// keywordEmbedder counts vocabulary words, giving a crude but deterministic
// notion of similarity.
type keywordEmbedder struct{ vocabulary []string }

func (e keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocabulary))
	for i, w := range e.vocabulary {
		vec[i] = float32(strings.Count(lower, w))
	}
	return vec, nil
}

// failingEmbedder fails for texts containing any of the given markers, or
// for everything when no marker is set.
type failingEmbedder struct {
	markers []string
	mu      sync.Mutex
	calls   int
}

func (e *failingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if len(e.markers) == 0 {
		return nil, errors.Join(ErrEmbeddingService, errors.New("connection refused"))
	}
	for _, m := range e.markers {
		if strings.Contains(text, m) {
			return nil, errors.Join(ErrEmbeddingService, errors.New("rate limited"))
		}
	}
	return []float32{1, 0}, nil
}

// vectorStore is a corpus that ranks remotely, like the pgvector store
type vectorStore struct {
	scored  []model.ScoredRecord
	limit   int
	loadErr error
}

func (v *vectorStore) ReplaceSource(context.Context, string, []model.EmbeddingRecord) error {
	return nil
}

func (v *vectorStore) LoadAll(context.Context) ([]model.EmbeddingRecord, error) {
	if v.loadErr != nil {
		return nil, v.loadErr
	}
	records := make([]model.EmbeddingRecord, 0, len(v.scored))
	for _, s := range v.scored {
		records = append(records, s.Record)
	}
	return records, nil
}

func (v *vectorStore) Sources(context.Context) ([]model.SourceInfo, error) { return nil, nil }

func (v *vectorStore) VectorSearch(_ context.Context, _ []float32, limit int) ([]model.ScoredRecord, error) {
	v.limit = limit
	if len(v.scored) > limit {
		return v.scored[:limit], nil
	}
	return v.scored, nil
}

func f64(v float64) *float64 { return &v }

// batchingEmbedder serves batches of size, failing any batch or single text
// that contains poison.
type batchingEmbedder struct {
	size   int
	poison string

	mu      sync.Mutex
	batches [][]string
	singles []string
}

func (e *batchingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.singles = append(e.singles, text)
	e.mu.Unlock()
	if e.poison != "" && strings.Contains(text, e.poison) {
		return nil, errors.Join(ErrEmbeddingService, errors.New("bad input"))
	}
	return []float32{1, 1}, nil
}

func (e *batchingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches = append(e.batches, texts)
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if e.poison != "" && strings.Contains(text, e.poison) {
			return nil, errors.Join(ErrEmbeddingService, errors.New("bad input in batch"))
		}
		out[i] = []float32{1, 1}
	}
	return out, nil
}

func (e *batchingEmbedder) BatchSize() int { return e.size }
