// Package extract turns unstructured brochure text into property records
// using ordered pattern heuristics. Every field has a fallback, so extraction
// never fails.
package extract

import (
	"strconv"
	"strings"

	"propertymatch/internal/model"
	"propertymatch/internal/utils"
)

// Extractor pulls structured property attributes out of raw text
type Extractor struct {
	gazetteer       []string
	defaultLocation string
}

// Option configures an Extractor
type Option func(*Extractor)

// WithDefaultLocation overrides the location used when no known place is mentioned
func WithDefaultLocation(location string) Option {
	return func(e *Extractor) {
		if strings.TrimSpace(location) != "" {
			e.defaultLocation = location
		}
	}
}

// WithGazetteer replaces the ordered list of known place names
func WithGazetteer(places []string) Option {
	return func(e *Extractor) {
		if len(places) > 0 {
			e.gazetteer = append([]string(nil), places...)
		}
	}
}

// New creates an extractor with the default vocabulary
func New(opts ...Option) *Extractor {
	e := &Extractor{
		gazetteer:       DefaultGazetteer,
		defaultLocation: DefaultLocation,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract builds a fully populated record from text. nameHint identifies the
// record inside a multi-record document; when empty the record gets a generic
// name and the description is taken from the start of the text.
func (e *Extractor) Extract(text, nameHint string) model.PropertyRecord {
	name := strings.TrimSpace(nameHint)
	if name == "" {
		name = DefaultRecordName
	}

	priceMin, priceMax := ExtractPriceBounds(text)
	size := ExtractSize(text)
	sizeSqft, _ := utils.FirstNumber(size)
	if size == DefaultSize {
		sizeSqft = 0
	}

	return model.PropertyRecord{
		Name:        name,
		Type:        ExtractType(text),
		Description: ExtractDescription(text, strings.TrimSpace(nameHint)),
		PriceRange:  ExtractPriceRange(text),
		Size:        size,
		SizeSqft:    sizeSqft,
		Location:    e.ExtractLocation(text),
		Amenities:   ExtractAmenities(text),
		Near:        ExtractNear(text),
		Bedrooms:    ExtractBedrooms(text),
		PriceMin:    priceMin,
		PriceMax:    priceMax,
	}
}

// ExtractType returns the first property type keyword found in text
func ExtractType(text string) string {
	for _, kw := range propertyTypes {
		if kw.pattern.MatchString(text) {
			return kw.label
		}
	}
	return DefaultPropertyType
}

// ExtractPriceRange joins the first two quoted prices into a display range
func ExtractPriceRange(text string) string {
	matches := pricePattern.FindAllString(text, 2)
	if len(matches) == 0 {
		return DefaultPriceRange
	}
	for i := range matches {
		matches[i] = strings.Join(strings.Fields(matches[i]), " ")
	}
	return strings.Join(matches, " - ")
}

// ExtractMinPrice parses the first quoted price, applying its unit multiplier
func ExtractMinPrice(text string) float64 {
	min, _ := ExtractPriceBounds(text)
	return min
}

// ExtractPriceBounds returns the minimum and maximum price. The maximum is the
// second quoted price when it is not below the first; otherwise it is derived
// with PriceMaxMarkup.
func ExtractPriceBounds(text string) (float64, float64) {
	matches := pricePattern.FindAllStringSubmatch(text, 2)
	if len(matches) == 0 {
		return DefaultPriceMin, DefaultPriceMin * PriceMaxMarkup
	}

	min, ok := priceValue(matches[0])
	if !ok {
		return DefaultPriceMin, DefaultPriceMin * PriceMaxMarkup
	}
	if len(matches) > 1 {
		if max, ok := priceValue(matches[1]); ok && max >= min {
			return min, max
		}
	}
	return min, min * PriceMaxMarkup
}

func priceValue(m []string) (float64, bool) {
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, m[1])
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return v * unitMultiplier(m[2]), true
}

func unitMultiplier(unit string) float64 {
	switch u := strings.ToLower(unit); {
	case u == "":
		return 1
	case strings.HasPrefix(u, "cr"):
		return 10000000
	case strings.HasPrefix(u, "l"):
		return 100000
	case strings.HasPrefix(u, "m"):
		return 1000000
	case u == "k" || u == "thousand":
		return 1000
	default:
		return 1
	}
}

// ExtractSize returns the first area mention, e.g. "1,419 sq ft"
func ExtractSize(text string) string {
	if m := sizePattern.FindString(text); m != "" {
		return strings.Join(strings.Fields(m), " ")
	}
	return DefaultSize
}

// ExtractLocation returns the first gazetteer place mentioned in text
func (e *Extractor) ExtractLocation(text string) string {
	lower := strings.ToLower(text)
	for _, place := range e.gazetteer {
		if strings.Contains(lower, strings.ToLower(place)) {
			return place
		}
	}
	return e.defaultLocation
}

// ExtractAmenities returns the canonical labels of every amenity keyword found
func ExtractAmenities(text string) model.JSONArray {
	found := labelsIn(text, amenityKeywords)
	if len(found) == 0 {
		return append(model.JSONArray(nil), FallbackAmenities...)
	}
	return found
}

// ExtractNear returns proximity tags mentioned in text; empty when none
func ExtractNear(text string) model.JSONArray {
	return labelsIn(text, nearKeywords)
}

func labelsIn(text string, keywords []keyword) model.JSONArray {
	var found model.JSONArray
	for _, kw := range keywords {
		if kw.pattern.MatchString(text) {
			found = append(found, kw.label)
		}
	}
	return found
}

// ExtractBedrooms parses "<n> BHK|bedroom|bed"
func ExtractBedrooms(text string) int {
	m := bedroomPattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultBedrooms
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultBedrooms
	}
	return n
}

// ExtractDescription returns a bounded snippet. With a name, the snippet starts
// at the name's first occurrence.
func ExtractDescription(text, name string) string {
	if name == "" {
		return strings.TrimSpace(truncate(text, 0, descriptionLimit))
	}
	idx := utils.IndexFold(text, name)
	if idx < 0 {
		return strings.TrimSpace(truncate(text, 0, descriptionHead))
	}
	return strings.TrimSpace(truncate(text, idx, descriptionWindow))
}

// truncate cuts at rune boundaries so multi-byte currency symbols survive.
func truncate(text string, start, n int) string {
	rest := text[start:]
	count := 0
	for i := range rest {
		if count == n {
			return rest[:i]
		}
		count++
	}
	return rest
}
