package extract

import (
	"regexp"

	"propertymatch/internal/model"
)

// PriceMaxMarkup derives the maximum price from the minimum when a brochure
// quotes a single price.
const PriceMaxMarkup = 1.5

// Defaults applied when a field cannot be found in the text
const (
	DefaultPropertyType = model.TypeApartment
	DefaultPriceRange   = "Price on request"
	DefaultPriceMin     = 1000000.0
	DefaultSize         = "Size varies"
	DefaultLocation     = "Location not specified"
	DefaultBedrooms     = 2
	DefaultRecordName   = "Property"
)

// Description bounds, in characters
const (
	descriptionLimit  = 500
	descriptionWindow = 300
	descriptionHead   = 200
)

// FallbackAmenities is used when no amenity keyword is present
var FallbackAmenities = []string{"24/7 Security", "Parking"}

type keyword struct {
	pattern *regexp.Regexp
	label   string
}

// Order matters: the first match wins, and Penthouse/Townhouse must be tried before House.
var propertyTypes = []keyword{
	typeKeyword("apartment", model.TypeApartment),
	typeKeyword("villa", model.TypeVilla),
	typeKeyword("penthouse", model.TypePenthouse),
	typeKeyword("townhouse", model.TypeTownhouse),
	typeKeyword("studio", model.TypeStudio),
	typeKeyword("flat", model.TypeFlat),
	typeKeyword("house", model.TypeHouse),
}

var amenityKeywords = []keyword{
	prefixKeyword("pool", "Swimming Pool"),
	prefixKeyword("gym", "Gym"),
	prefixKeyword("parking", "Parking"),
	prefixKeyword("security", "24/7 Security"),
	prefixKeyword("clubhouse", "Clubhouse"),
	prefixKeyword("playground", "Kids Play Area"),
	prefixKeyword("pet", "Pet Friendly"),
	prefixKeyword("garden", "Garden"),
	prefixKeyword("lift", "Elevator"),
}

// Proximity tags use the same values as the conversation's "near" buttons.
var nearKeywords = []keyword{
	prefixKeyword(`school`, "School"),
	prefixKeyword(`(?:hospital|clinic)`, "Hospital"),
	prefixKeyword(`(?:mall|supermarket|shopping)`, "Mall"),
	prefixKeyword(`metro`, "Metro"),
	prefixKeyword(`park\b`, "Park"),
	prefixKeyword(`(?:office|business district)`, "Office"),
}

// DefaultGazetteer is the ordered list of known place names
var DefaultGazetteer = []string{
	"Dubai Marina",
	"Downtown Dubai",
	"Business Bay",
	"Palm Jumeirah",
	"Jumeirah",
	"Dubai Hills",
	"JBR",
	"Arabian Ranches",
	"JLT",
	"Trivandrum",
	"Thiruvananthapuram",
	"Kerala",
	"Mumbai",
	"Bangalore",
	"Delhi",
}

var (
	// Currency symbol, number, optional unit suffix.
	pricePattern = regexp.MustCompile(
		`(?i)(?:\b(?:AED|INR|USD|EUR|GBP|Rs\.?)|₹|\$|€|£)\s*(\d[\d,]*(?:\.\d+)?)(?:\s*(crores?|cr|lakhs?|lacs?|l|millions?|mn|m|thousand|k)\b)?`)

	sizePattern = regexp.MustCompile(
		`(?i)(\d[\d,]*(?:\.\d+)?)\s*(?:sq\.?\s*ft\.?|sqft|sq\.?\s*feet|square\s*f(?:ee|oo)t)`)

	bedroomPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:BHK|bedrooms?|beds?)\b`)
)

func typeKeyword(word, label string) keyword {
	return keyword{pattern: regexp.MustCompile(`(?i)\b` + word + `s?\b`), label: label}
}

func prefixKeyword(word, label string) keyword {
	return keyword{pattern: regexp.MustCompile(`(?i)\b` + word), label: label}
}
