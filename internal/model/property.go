package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Property types recognised by the extractor and the hard filters
const (
	TypeApartment = "Apartment"
	TypeVilla     = "Villa"
	TypePenthouse = "Penthouse"
	TypeTownhouse = "Townhouse"
	TypeStudio    = "Studio"
	TypeFlat      = "Flat"
	TypeHouse     = "House"
)

// PropertyRecord is the structured form of one property found in a brochure
type PropertyRecord struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	PriceRange  string    `json:"price_range"`
	Size        string    `json:"size"`
	SizeSqft    float64   `json:"size_sqft,omitempty"` // 0 when the size is unknown
	Location    string    `json:"location"`
	Amenities   JSONArray `json:"amenities"`
	Near        JSONArray `json:"near,omitempty"`
	Bedrooms    int       `json:"bedrooms"`
	PriceMin    float64   `json:"price_min"`
	PriceMax    float64   `json:"price_max"`
}

// Value implements driver.Valuer interface
func (p PropertyRecord) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface
func (p *PropertyRecord) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = PropertyRecord{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into PropertyRecord", value)
	}
}

// EmbeddingRecord is one entry of the persisted corpus
type EmbeddingRecord struct {
	ID        string         `json:"id" db:"id"`
	Source    string         `json:"source" db:"source"`
	Position  int            `json:"position" db:"position"`
	Content   string         `json:"content" db:"content"`
	Embedding []float32      `json:"embedding" db:"-"`
	Metadata  PropertyRecord `json:"metadata" db:"metadata"`
	Link      string         `json:"link,omitempty" db:"link"`
}

// RecordID builds the stable corpus identifier of a record within a source
func RecordID(source string, position int) string {
	return fmt.Sprintf("%s-%03d", source, position)
}

// PropertyCard is the display projection of a matched property
type PropertyCard struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	PriceRange  string   `json:"price_range"`
	Size        string   `json:"size"`
	Location    string   `json:"location"`
	Amenities   []string `json:"amenities"`
	Near        []string `json:"near,omitempty"`
	Bedrooms    int      `json:"bedrooms"`
	PriceMin    float64  `json:"price_min"`
	PriceMax    float64  `json:"price_max"`
	Link        string   `json:"link,omitempty"`
}

// Card projects an embedding record to its display shape
func (r EmbeddingRecord) Card() PropertyCard {
	m := r.Metadata
	return PropertyCard{
		ID:          r.ID,
		Name:        m.Name,
		Type:        m.Type,
		Description: m.Description,
		PriceRange:  m.PriceRange,
		Size:        m.Size,
		Location:    m.Location,
		Amenities:   append([]string(nil), m.Amenities...),
		Near:        append([]string(nil), m.Near...),
		Bedrooms:    m.Bedrooms,
		PriceMin:    m.PriceMin,
		PriceMax:    m.PriceMax,
		Link:        r.Link,
	}
}

// MatchResult is a ranked search hit; it is never persisted
type MatchResult struct {
	Property       PropertyCard `json:"property"`
	Similarity     float64      `json:"similarity"`
	MatchedReasons []string     `json:"matched_reasons,omitempty"`
}

// ScoredRecord is a corpus record with its similarity to a query
type ScoredRecord struct {
	Record     EmbeddingRecord
	Similarity float64
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
