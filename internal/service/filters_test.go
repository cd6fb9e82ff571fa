package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"propertymatch/internal/model"
	"propertymatch/internal/repository"
)

func names(results []model.MatchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Property.Name)
	}
	return out
}

func TestFilterCandidates_DubaiHillsBudget(t *testing.T) {
	corpus := repository.DemoCorpus()

	wide := model.UserPreferences{
		PropertyType: "Apartment",
		Location:     "Dubai Hills",
		BudgetMin:    f64(2000000),
		BudgetMax:    f64(5000000),
	}
	results := FilterCandidates(wide, corpus)
	assert.Equal(t, []string{"Rosehill", "Acacia", "Executive Residences"}, names(results))
	for _, r := range results {
		assert.Equal(t, 1.0, r.Similarity)
		assert.Contains(t, r.MatchedReasons, ReasonPriceMatch)
	}

	narrow := wide
	narrow.BudgetMax = f64(3000000)
	assert.Equal(t, []string{"Rosehill"}, names(FilterCandidates(narrow, corpus)))
}

func TestFilterCandidates_EmptyPreferencesKeepEverything(t *testing.T) {
	corpus := repository.DemoCorpus()
	results := FilterCandidates(model.UserPreferences{}, corpus)
	assert.Len(t, results, len(corpus))
	assert.Equal(t, []string{ReasonGeneralMatch}, results[0].MatchedReasons)
}

func TestMatches(t *testing.T) {
	rosehill := repository.DemoRecords()[0]

	tests := []struct {
		name  string
		prefs model.UserPreferences
		want  bool
	}{
		{"type case insensitive", model.UserPreferences{PropertyType: "apartment"}, true},
		{"type mismatch", model.UserPreferences{PropertyType: "Villa"}, false},
		{"location substring", model.UserPreferences{Location: "dubai hills"}, true},
		{"location mismatch", model.UserPreferences{Location: "Dubai Marina"}, false},
		{"no location preference", model.UserPreferences{Location: model.NoPreference}, true},
		{"exact bedrooms", model.UserPreferences{Bedrooms: "2 BHK"}, true},
		{"wrong bedrooms", model.UserPreferences{Bedrooms: "3 BHK"}, false},
		{"at least bedrooms", model.UserPreferences{Bedrooms: "1+ BHK"}, true},
		{"too few bedrooms", model.UserPreferences{Bedrooms: "4+ BHK"}, false},
		{"unparseable bedrooms", model.UserPreferences{Bedrooms: "Studio"}, true},
		{"budget above price", model.UserPreferences{BudgetMin: f64(1000000), BudgetMax: f64(2500000)}, true},
		{"budget below price", model.UserPreferences{BudgetMax: f64(2000000)}, false},
		{"budget min above price", model.UserPreferences{BudgetMin: f64(3000000)}, false},
		{"size in range", model.UserPreferences{Size: "1200-1800"}, true},
		{"size out of range", model.UserPreferences{Size: "2500+"}, false},
		{"malformed size", model.UserPreferences{Size: "big"}, true},
		{"amenity substring", model.UserPreferences{Amenities: []string{"Pool", "gym"}}, true},
		{"missing amenity", model.UserPreferences{Amenities: []string{"Pool", "Garden"}}, false},
		{"near places", model.UserPreferences{Near: []string{"School", "Mall"}}, true},
		{"missing near place", model.UserPreferences{Near: []string{"Hospital"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.prefs, rosehill))
		})
	}
}

func TestMatches_UnknownSizePasses(t *testing.T) {
	rec := model.PropertyRecord{Size: "Size not specified"}
	assert.True(t, Matches(model.UserPreferences{Size: "1200-1800"}, rec))
}
