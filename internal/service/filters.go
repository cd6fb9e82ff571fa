package service

import (
	"strings"

	"propertymatch/internal/model"
	"propertymatch/internal/utils"
)

// Matches reports whether a record passes every hard filter set in prefs.
// Unset preferences and malformed range tokens impose no constraint.
func Matches(prefs model.UserPreferences, rec model.PropertyRecord) bool {
	if prefs.PropertyType != "" && !utils.EqualFold(prefs.PropertyType, rec.Type) {
		return false
	}
	if hasLocation(prefs) && !utils.ContainsFold(rec.Location, prefs.Location) {
		return false
	}
	if !bedroomsMatch(prefs.Bedrooms, rec.Bedrooms) {
		return false
	}
	if !budgetOverlaps(prefs, rec) {
		return false
	}
	if !sizeMatches(prefs.Size, rec) {
		return false
	}
	if !utils.MatchAll(prefs.Amenities, rec.Amenities) {
		return false
	}
	return utils.MatchAll(prefs.Near, rec.Near)
}

// FilterCandidates applies the hard filters to an in-memory candidate list.
// It is the pure-filter variant of search: order is preserved and every
// survivor is reported with similarity 1.
func FilterCandidates(prefs model.UserPreferences, candidates []model.EmbeddingRecord) []model.MatchResult {
	results := make([]model.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		if !Matches(prefs, c.Metadata) {
			continue
		}
		results = append(results, model.MatchResult{
			Property:       c.Card(),
			Similarity:     1,
			MatchedReasons: MatchedReasons(prefs, c.Metadata),
		})
	}
	return results
}

func hasLocation(prefs model.UserPreferences) bool {
	return strings.TrimSpace(prefs.Location) != "" && !utils.EqualFold(prefs.Location, model.NoPreference)
}

// bedroomsMatch handles "3 BHK" (equality) and "4+ BHK" (at least four)
func bedroomsMatch(token string, bedrooms int) bool {
	if strings.TrimSpace(token) == "" {
		return true
	}
	n, ok := utils.ParseLeadingInt(token)
	if !ok {
		return true
	}
	rest := strings.TrimSpace(token)
	rest = strings.TrimLeft(rest, "0123456789")
	if strings.HasPrefix(rest, "+") {
		return bedrooms >= n
	}
	return bedrooms == n
}

func budgetOverlaps(prefs model.UserPreferences, rec model.PropertyRecord) bool {
	if prefs.BudgetMax != nil && rec.PriceMin > *prefs.BudgetMax {
		return false
	}
	if prefs.BudgetMin != nil && rec.PriceMax < *prefs.BudgetMin {
		return false
	}
	return true
}

// A candidate without a known size is not excluded by a size preference.
func sizeMatches(token string, rec model.PropertyRecord) bool {
	if strings.TrimSpace(token) == "" || rec.SizeSqft <= 0 {
		return true
	}
	lo, hi, ok := utils.ParseRange(token)
	if !ok {
		return true
	}
	return rec.SizeSqft >= lo && rec.SizeSqft <= hi
}
