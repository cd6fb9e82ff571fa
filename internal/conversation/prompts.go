package conversation

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"propertymatch/internal/model"
)

// Prompt is the message and buttons shown at a step
type Prompt struct {
	Message string
	Buttons []model.Button
}

func choice(label, value string) model.Button {
	return model.Button{Label: label, Value: value, Action: ActionSelect}
}

func multi(label, value string) model.Button {
	return model.Button{Label: label, Value: value, Action: ActionToggle, MultiSelect: true}
}

var amountPrinter = message.NewPrinter(language.English)

var (
	nextButton   = model.Button{Label: "Next ➡️", Action: ActionNext}
	reviewButton = model.Button{Label: "Review Preferences", Action: ActionReview}
)

var prompts = map[string]Prompt{
	StepGreeting: {
		Message: "👋 Hi! Welcome to Dubai Property Assistant.\nHow can I help you today?",
		Buttons: []model.Button{
			choice("🏠 Property Inquiry", OptionPropertyInquiry),
			choice("💰 Loan Inquiry", OptionLoanInquiry),
			choice("📄 Document Assistance", OptionDocumentAssistance),
			choice("📞 Contact Sales", OptionContactSales),
		},
	},
	StepPropertyType: {
		Message: "What type of property are you looking for?",
		Buttons: []model.Button{
			choice("Apartment / Flat", model.TypeApartment),
			choice("Villa", model.TypeVilla),
			choice("Penthouse", model.TypePenthouse),
			choice("Townhouse", model.TypeTownhouse),
			choice("Studio", model.TypeStudio),
			choice("Individual House", model.TypeHouse),
		},
	},
	StepSize: {
		Message: "What's your preferred property size?",
		Buttons: []model.Button{
			choice("500–800 sq ft", "500-800"),
			choice("800–1200 sq ft", "800-1200"),
			choice("1200–1800 sq ft", "1200-1800"),
			choice("1800–2500 sq ft", "1800-2500"),
			choice("2500+ sq ft", "2500+"),
		},
	},
	StepBedrooms: {
		Message: "How many bedrooms would you prefer?",
		Buttons: []model.Button{
			choice("1 BHK", "1 BHK"),
			choice("2 BHK", "2 BHK"),
			choice("3 BHK", "3 BHK"),
			choice("4+ BHK", "4+ BHK"),
		},
	},
	StepLocation: {
		Message: "Which location would you prefer?",
		Buttons: []model.Button{
			choice("Dubai Marina", "Dubai Marina"),
			choice("Downtown Dubai", "Downtown Dubai"),
			choice("Business Bay", "Business Bay"),
			choice("Jumeirah", "Jumeirah"),
			choice("Palm Jumeirah", "Palm Jumeirah"),
			choice("Dubai Hills", "Dubai Hills"),
			choice("🌀 No Preference", model.NoPreference),
		},
	},
	StepBudget: {
		Message: "What's your budget range?",
		Buttons: []model.Button{
			choice("AED 500K – 1M", "500000-1000000"),
			choice("AED 1M – 2M", "1000000-2000000"),
			choice("AED 2M – 5M", "2000000-5000000"),
			choice("AED 5M – 10M", "5000000-10000000"),
			choice("AED 10M+", "10000000+"),
		},
	},
	StepNear: {
		Message: "Do you want your property near any of these?\n(Select all that apply)",
		Buttons: []model.Button{
			multi("🏫 School", "School"),
			multi("🏥 Hospital", "Hospital"),
			multi("🛒 Mall / Supermarket", "Mall"),
			multi("🚇 Metro Station", "Metro"),
			multi("🌳 Park", "Park"),
			multi("🏢 Office Area", "Office"),
			nextButton,
			reviewButton,
		},
	},
	StepAmenities: {
		Message: "Which amenities would you like?\n(Select all that apply)",
		Buttons: []model.Button{
			multi("🏊 Swimming Pool", "Pool"),
			multi("🏋️ Gym", "Gym"),
			multi("🏠 Clubhouse", "Clubhouse"),
			multi("🧒 Kids Play Area", "Kids Play Area"),
			multi("🚗 Parking", "Parking"),
			multi("🔐 Security", "Security"),
			multi("🐕 Pet Friendly", "Pet Friendly"),
			nextButton,
			reviewButton,
		},
	},
}

// PromptFor returns the prompt of a step. The summary prompt is rendered
// from the collected preferences; the search step has no fixed prompt.
func PromptFor(step string, prefs model.UserPreferences) Prompt {
	if step == StepSummary {
		return Prompt{
			Message: Summary(prefs),
			Buttons: []model.Button{
				choice("🔍 Search Properties", OptionSearch),
				choice("✏️ Edit Preferences", OptionRestart),
			},
		}
	}
	p := prompts[step]
	return Prompt{Message: p.Message, Buttons: append([]model.Button(nil), p.Buttons...)}
}

// ResultsMessage is shown after a search; empty results come with relaxation buttons
func ResultsMessage(count int) Prompt {
	if count > 0 {
		return Prompt{Message: "Found " + strconv.Itoa(count) + " matching properties:"}
	}
	return Prompt{
		Message: "No exact matches found. Try relaxing some filters:",
		Buttons: RelaxationButtons(),
	}
}

// RelaxationButtons are offered when a search returns nothing
func RelaxationButtons() []model.Button {
	return []model.Button{
		choice("Remove Amenities Filter", OptionRemoveAmenities),
		choice("Widen Budget", OptionWidenBudget),
		choice("Change Location", OptionChangeLocation),
		choice("Start Over", OptionRestart),
	}
}

// Summary renders the collected preferences for review
func Summary(p model.UserPreferences) string {
	lines := []string{
		"Perfect! Here's what you're looking for:\n",
		"Property: " + orAny(p.PropertyType),
		"Size: " + orAny(p.Size),
		"Bedrooms: " + orAny(p.Bedrooms),
		"Location: " + orAny(p.Location),
		"Budget: " + budgetLabel(p),
	}
	if len(p.Near) > 0 {
		lines = append(lines, "Near: "+strings.Join(p.Near, ", "))
	}
	if len(p.Amenities) > 0 {
		lines = append(lines, "Amenities: "+strings.Join(p.Amenities, ", "))
	}
	return strings.Join(lines, "\n")
}

func orAny(v string) string {
	if v == "" {
		return "Any"
	}
	return v
}

func budgetLabel(p model.UserPreferences) string {
	if p.BudgetMin == nil && p.BudgetMax == nil {
		return "Any"
	}
	min := "0"
	if p.BudgetMin != nil {
		min = amount(*p.BudgetMin)
	}
	max := "No limit"
	if p.BudgetMax != nil && *p.BudgetMax < BudgetUnbounded {
		max = amount(*p.BudgetMax)
	}
	return "AED " + min + " - " + max
}

// amount formats 2310000 as "2,310,000"
func amount(v float64) string {
	return amountPrinter.Sprintf("%.0f", v)
}
