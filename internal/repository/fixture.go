package repository

import "propertymatch/internal/model"

// DemoSource is the source name of the built-in demo corpus
const DemoSource = "dubai-hills-demo"

// DemoRecords returns the built-in Dubai Hills demo properties. They carry
// no embeddings; index them before running semantic search.
func DemoRecords() []model.PropertyRecord {
	near := model.JSONArray{"School", "Mall", "Office"}
	return []model.PropertyRecord{
		{
			Name:        "Rosehill",
			Type:        model.TypeApartment,
			Description: "Contemporary 2 bedroom residences by Emaar with views over the Dubai Hills park and golf course.",
			PriceRange:  "AED 2,310,000",
			Size:        "1,419 sq ft",
			SizeSqft:    1419,
			Location:    "Dubai Hills",
			Amenities:   model.JSONArray{"Furnished", "Electricity Backup", "Parking Spaces: 2", "Gym or Health Club", "Swimming Pool"},
			Near:        near,
			Bedrooms:    2,
			PriceMin:    2310000,
			PriceMax:    2310000,
		},
		{
			Name:        "Acacia",
			Type:        model.TypeApartment,
			Description: "Park-facing apartments in Dubai Hills Estate close to the central park and community retail.",
			PriceRange:  "AED 3,850,000",
			Size:        "1,322 sq ft",
			SizeSqft:    1322,
			Location:    "Dubai Hills",
			Amenities:   model.JSONArray{"Swimming Pool", "Gym or Health Club", "Security Staff"},
			Near:        near,
			Bedrooms:    2,
			PriceMin:    3850000,
			PriceMax:    3850000,
		},
		{
			Name:        "Executive Residences",
			Type:        model.TypeApartment,
			Description: "Premium apartments overlooking the championship golf course with direct access to Dubai Hills Mall.",
			PriceRange:  "AED 4,100,000",
			Size:        "1,277 sq ft",
			SizeSqft:    1277,
			Location:    "Dubai Hills",
			Amenities:   model.JSONArray{"Swimming Pool", "Gym or Health Club", "Security Staff"},
			Near:        near,
			Bedrooms:    2,
			PriceMin:    4100000,
			PriceMax:    4100000,
		},
	}
}

// DemoCorpus returns the demo properties as unembedded corpus records
func DemoCorpus() []model.EmbeddingRecord {
	props := DemoRecords()
	records := make([]model.EmbeddingRecord, 0, len(props))
	for i, p := range props {
		records = append(records, model.EmbeddingRecord{
			ID:       model.RecordID(DemoSource, i),
			Source:   DemoSource,
			Position: i,
			Metadata: p,
		})
	}
	return records
}
