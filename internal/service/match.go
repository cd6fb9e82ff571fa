package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"propertymatch/internal/model"
	"propertymatch/internal/repository"
)

// Search modes
const (
	ModeSemantic = "semantic"
	ModeFilter   = "filter"
)

// BuildQuery turns preferences into the text blob that is embedded for search
func BuildQuery(prefs model.UserPreferences) string {
	var parts []string

	if prefs.PropertyType != "" {
		parts = append(parts, prefs.PropertyType+" property")
	}
	if prefs.Bedrooms != "" {
		parts = append(parts, prefs.Bedrooms+" bedrooms")
	}
	if prefs.Size != "" {
		parts = append(parts, "size "+prefs.Size)
	}
	if hasLocation(prefs) {
		parts = append(parts, "in "+prefs.Location)
	}
	if prefs.BudgetMin != nil && prefs.BudgetMax != nil {
		parts = append(parts, "budget "+formatAmount(*prefs.BudgetMin)+" to "+formatAmount(*prefs.BudgetMax))
	}
	if len(prefs.Amenities) > 0 {
		parts = append(parts, "with "+strings.Join(prefs.Amenities, ", "))
	}
	if len(prefs.Near) > 0 {
		parts = append(parts, "near "+strings.Join(prefs.Near, ", "))
	}

	if len(parts) == 0 {
		return "property"
	}
	return strings.Join(parts, " ")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MatchEngine ranks the corpus against user preferences
type MatchEngine struct {
	corpus   repository.CorpusStore
	embedder Embedder
	ranker   *Ranker
	log      zerolog.Logger
}

// NewMatchEngine creates a match engine. embedder may be nil, in which case
// only FilterOnly is usable.
func NewMatchEngine(corpus repository.CorpusStore, embedder Embedder, ranker *Ranker, log zerolog.Logger) *MatchEngine {
	if ranker == nil {
		ranker = NewRanker(DefaultSimilarityFloor, DefaultTopK)
	}
	return &MatchEngine{corpus: corpus, embedder: embedder, ranker: ranker, log: log}
}

// Semantic reports whether embedding search is available
func (m *MatchEngine) Semantic() bool {
	return m.embedder != nil
}

// Search embeds the preference query, keeps the top records above the
// similarity floor and applies the hard filters. Results are in descending
// similarity order; an empty slice means no match.
func (m *MatchEngine) Search(ctx context.Context, prefs model.UserPreferences) ([]model.MatchResult, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", ErrEmbeddingService)
	}

	query := BuildQuery(prefs)
	vector, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := m.rank(ctx, vector)
	if err != nil {
		return nil, err
	}

	results := make([]model.MatchResult, 0, len(scored))
	for _, s := range scored {
		if !Matches(prefs, s.Record.Metadata) {
			continue
		}
		results = append(results, model.MatchResult{
			Property:       s.Record.Card(),
			Similarity:     s.Similarity,
			MatchedReasons: withSimilarityReason(MatchedReasons(prefs, s.Record.Metadata), s.Similarity),
		})
	}

	m.log.Debug().
		Str("query", query).
		Int("candidates", len(scored)).
		Int("results", len(results)).
		Msg("semantic search")

	return results, nil
}

// rank scores in the store when it supports vector search, otherwise in process
func (m *MatchEngine) rank(ctx context.Context, vector []float32) ([]model.ScoredRecord, error) {
	if vs, ok := m.corpus.(repository.VectorSearcher); ok {
		scored, err := vs.VectorSearch(ctx, vector, m.ranker.topK)
		if err != nil {
			return nil, fmt.Errorf("failed to search corpus: %w", err)
		}
		return m.ranker.Cut(scored), nil
	}

	records, err := m.corpus.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return m.ranker.Rank(vector, records), nil
}

// FilterOnly applies the hard filters to the whole corpus without embeddings
func (m *MatchEngine) FilterOnly(ctx context.Context, prefs model.UserPreferences) ([]model.MatchResult, error) {
	records, err := m.corpus.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return FilterCandidates(prefs, records), nil
}

// Find runs semantic search when available and filter-only search otherwise.
// It returns the mode that produced the results.
func (m *MatchEngine) Find(ctx context.Context, prefs model.UserPreferences, mode string) ([]model.MatchResult, string, error) {
	if mode == ModeFilter || !m.Semantic() {
		results, err := m.FilterOnly(ctx, prefs)
		return results, ModeFilter, err
	}
	results, err := m.Search(ctx, prefs)
	return results, ModeSemantic, err
}
