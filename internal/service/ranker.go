package service

import (
	"sort"

	"propertymatch/internal/model"
)

// Match reason constants
const (
	ReasonTypeMatch      = "Property type match"
	ReasonLocationMatch  = "Location match"
	ReasonBedroomsMatch  = "Bedrooms match"
	ReasonPriceMatch     = "Price within budget"
	ReasonSizeMatch      = "Size in range"
	ReasonAmenitiesMatch = "Has requested amenities"
	ReasonNearMatch      = "Near requested places"
	ReasonHighSimilarity = "Highly relevant"
	ReasonGeneralMatch   = "General match"
)

// Defaults for the ranking cut
const (
	DefaultSimilarityFloor = 0.3
	DefaultTopK            = 10
	highSimilarity         = 0.8
)

// Ranker orders corpus records by cosine similarity to a query vector
type Ranker struct {
	floor float64
	topK  int
}

// NewRanker creates a ranker keeping at most topK records scoring strictly above floor
func NewRanker(floor float64, topK int) *Ranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Ranker{floor: floor, topK: topK}
}

// Rank scores every record, sorts by descending similarity (ties keep
// corpus order), caps to topK and drops scores at or below the floor.
func (r *Ranker) Rank(query []float32, records []model.EmbeddingRecord) []model.ScoredRecord {
	scored := make([]model.ScoredRecord, 0, len(records))
	for _, rec := range records {
		scored = append(scored, model.ScoredRecord{Record: rec, Similarity: CosineSimilarity(query, rec.Embedding)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	return r.Cut(scored)
}

// Cut applies the cap and floor to an already sorted list
func (r *Ranker) Cut(sorted []model.ScoredRecord) []model.ScoredRecord {
	if len(sorted) > r.topK {
		sorted = sorted[:r.topK]
	}
	kept := make([]model.ScoredRecord, 0, len(sorted))
	for _, s := range sorted {
		if s.Similarity > r.floor {
			kept = append(kept, s)
		}
	}
	return kept
}

// MatchedReasons generates human-readable reasons for why a record matched
func MatchedReasons(prefs model.UserPreferences, rec model.PropertyRecord) []string {
	reasons := []string{}

	if prefs.PropertyType != "" {
		reasons = append(reasons, ReasonTypeMatch)
	}
	if hasLocation(prefs) {
		reasons = append(reasons, ReasonLocationMatch)
	}
	if prefs.Bedrooms != "" {
		reasons = append(reasons, ReasonBedroomsMatch)
	}
	if prefs.BudgetMin != nil || prefs.BudgetMax != nil {
		reasons = append(reasons, ReasonPriceMatch)
	}
	if prefs.Size != "" && rec.SizeSqft > 0 {
		reasons = append(reasons, ReasonSizeMatch)
	}
	if len(prefs.Amenities) > 0 {
		reasons = append(reasons, ReasonAmenitiesMatch)
	}
	if len(prefs.Near) > 0 {
		reasons = append(reasons, ReasonNearMatch)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}
	return reasons
}

func withSimilarityReason(reasons []string, similarity float64) []string {
	if similarity >= highSimilarity {
		return append(reasons, ReasonHighSimilarity)
	}
	return reasons
}
