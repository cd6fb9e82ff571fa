package repository

import (
	"context"
	"errors"

	"propertymatch/internal/model"
)

// ErrSessionNotFound is returned when a conversation session does not exist or expired
var ErrSessionNotFound = errors.New("session not found")

// CorpusStore persists embedding records keyed by source document
type CorpusStore interface {
	// ReplaceSource swaps every record of source for records in one step
	ReplaceSource(ctx context.Context, source string, records []model.EmbeddingRecord) error
	// LoadAll returns the whole corpus in stable order (source, then position)
	LoadAll(ctx context.Context) ([]model.EmbeddingRecord, error)
	Sources(ctx context.Context) ([]model.SourceInfo, error)
}

// VectorSearcher is implemented by stores that can rank by similarity themselves
type VectorSearcher interface {
	// VectorSearch returns up to limit records ordered by descending cosine similarity
	VectorSearch(ctx context.Context, query []float32, limit int) ([]model.ScoredRecord, error)
}

// SessionStore holds per-session conversation state
type SessionStore interface {
	Save(ctx context.Context, state model.ConversationState) error
	Load(ctx context.Context, sessionID string) (model.ConversationState, error)
	Delete(ctx context.Context, sessionID string) error
}

// SearchLogger records executed searches
type SearchLogger interface {
	LogSearch(ctx context.Context, entry model.SearchLog) error
}
