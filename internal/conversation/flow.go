// Package conversation implements the preference collection flow as an
// explicit state-transition table. Transitions are pure: they take a state
// and an action and return a new state without touching the input.
package conversation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"propertymatch/internal/model"
	"propertymatch/internal/utils"
)

// Steps of the flow
const (
	StepGreeting     = "greeting"
	StepPropertyType = "property_type"
	StepSize         = "size"
	StepBedrooms     = "bedrooms"
	StepLocation     = "location"
	StepBudget       = "budget"
	StepNear         = "near"
	StepAmenities    = "amenities"
	StepSummary      = "summary"
	StepSearch       = "search"
)

// Action kinds accepted by Apply
const (
	ActionSelect  = "select"
	ActionToggle  = "toggle"
	ActionNext    = "next"
	ActionReview  = "review"
	ActionRestart = "restart"
)

// Values understood by the select action outside the single-select steps
const (
	OptionPropertyInquiry    = "property_inquiry"
	OptionLoanInquiry        = "loan_inquiry"
	OptionDocumentAssistance = "document_assistance"
	OptionContactSales       = "contact_sales"
	OptionSearch             = "search"
	OptionRestart            = "restart"
	OptionRemoveAmenities    = "remove_amenities"
	OptionWidenBudget        = "widen_budget"
	OptionChangeLocation     = "change_location"
)

// BudgetUnbounded is the maximum recorded for open-ended budget choices such as "10000000+"
const BudgetUnbounded = 999999999.0

// Widening factors applied by the widen_budget relaxation
const (
	widenMinDivisor  = 2.0
	widenMaxMultiple = 1.5
)

// ErrInvalidAction is returned for an action the current step does not accept
var ErrInvalidAction = errors.New("invalid action for step")

// Result is the outcome of one transition
type Result struct {
	State model.ConversationState
	// Notice is an informational message for choices that do not advance the flow
	Notice string
}

type handler func(st *model.ConversationState, value string) (string, error)

// transitions maps step -> action kind -> handler. Restart is accepted
// everywhere and handled before the lookup.
var transitions = map[string]map[string]handler{
	StepGreeting: {
		ActionSelect: selectGreeting,
	},
	StepPropertyType: {
		ActionSelect: record(func(p *model.UserPreferences, v string) { p.PropertyType = v }, StepSize),
	},
	StepSize: {
		ActionSelect: record(func(p *model.UserPreferences, v string) { p.Size = v }, StepBedrooms),
	},
	StepBedrooms: {
		ActionSelect: record(func(p *model.UserPreferences, v string) { p.Bedrooms = v }, StepLocation),
	},
	StepLocation: {
		ActionSelect: record(func(p *model.UserPreferences, v string) { p.Location = v }, StepBudget),
	},
	StepBudget: {
		ActionSelect: record(applyBudget, StepNear),
	},
	StepNear: {
		ActionToggle: toggle(func(p *model.UserPreferences) *[]string { return &p.Near }),
		ActionNext:   advance(StepAmenities),
		ActionReview: advance(StepSummary),
	},
	StepAmenities: {
		ActionToggle: toggle(func(p *model.UserPreferences) *[]string { return &p.Amenities }),
		ActionNext:   advance(StepSearch),
		ActionReview: advance(StepSummary),
	},
	StepSummary: {
		ActionSelect: selectSummary,
	},
	StepSearch: {
		ActionSelect: selectRelaxation,
	},
}

// NewState creates the initial state of a session
func NewState(sessionID string, now time.Time) model.ConversationState {
	return model.ConversationState{SessionID: sessionID, Step: StepGreeting, UpdatedAt: now}
}

// Apply performs one transition. On error the returned state equals the input.
func Apply(state model.ConversationState, action model.ChatAction) (Result, error) {
	next := state
	next.Preferences = state.Preferences.Clone()

	kind := strings.ToLower(strings.TrimSpace(action.Kind))
	if kind == ActionRestart {
		reset(&next)
		return Result{State: next}, nil
	}

	actions, ok := transitions[state.Step]
	if !ok {
		return Result{State: state}, fmt.Errorf("%w: unknown step %q", ErrInvalidAction, state.Step)
	}
	h, ok := actions[kind]
	if !ok {
		return Result{State: state}, fmt.Errorf("%w: %q at %s", ErrInvalidAction, action.Kind, state.Step)
	}

	notice, err := h(&next, strings.TrimSpace(action.Value))
	if err != nil {
		return Result{State: state}, err
	}
	return Result{State: next, Notice: notice}, nil
}

// Allowed lists the action kinds accepted at step, restart included
func Allowed(step string) []string {
	var kinds []string
	for _, kind := range []string{ActionSelect, ActionToggle, ActionNext, ActionReview} {
		if _, ok := transitions[step][kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return append(kinds, ActionRestart)
}

func reset(st *model.ConversationState) {
	st.Step = StepGreeting
	st.Preferences = model.UserPreferences{}
}

func record(set func(*model.UserPreferences, string), nextStep string) handler {
	return func(st *model.ConversationState, value string) (string, error) {
		if value == "" {
			return "", fmt.Errorf("%w: empty value at %s", ErrInvalidAction, st.Step)
		}
		set(&st.Preferences, value)
		st.Step = nextStep
		return "", nil
	}
}

func toggle(field func(*model.UserPreferences) *[]string) handler {
	return func(st *model.ConversationState, value string) (string, error) {
		if value == "" {
			return "", fmt.Errorf("%w: empty value at %s", ErrInvalidAction, st.Step)
		}
		set := field(&st.Preferences)
		*set = utils.Toggle(*set, value)
		if len(*set) == 0 {
			*set = nil
		}
		return "", nil
	}
}

func advance(nextStep string) handler {
	return func(st *model.ConversationState, _ string) (string, error) {
		st.Step = nextStep
		return "", nil
	}
}

var greetingNotices = map[string]string{
	OptionLoanInquiry:        "Our mortgage advisors will be happy to help with financing. For now I can help you find a property.",
	OptionDocumentAssistance: "Please share your documents with our team. Meanwhile I can help you find a property.",
	OptionContactSales:       "A sales consultant will get in touch with you shortly. Meanwhile I can help you find a property.",
}

func selectGreeting(st *model.ConversationState, value string) (string, error) {
	if value == OptionPropertyInquiry {
		st.Step = StepPropertyType
		return "", nil
	}
	if notice, ok := greetingNotices[value]; ok {
		return notice, nil
	}
	return "", fmt.Errorf("%w: %q at %s", ErrInvalidAction, value, st.Step)
}

func selectSummary(st *model.ConversationState, value string) (string, error) {
	switch value {
	case OptionSearch:
		st.Step = StepSearch
	case OptionRestart:
		reset(st)
	default:
		return "", fmt.Errorf("%w: %q at %s", ErrInvalidAction, value, st.Step)
	}
	return "", nil
}

func selectRelaxation(st *model.ConversationState, value string) (string, error) {
	switch value {
	case OptionRemoveAmenities:
		st.Preferences.Amenities = nil
	case OptionWidenBudget:
		widenBudget(&st.Preferences)
	case OptionChangeLocation:
		st.Step = StepLocation
	case OptionRestart:
		reset(st)
	default:
		return "", fmt.Errorf("%w: %q at %s", ErrInvalidAction, value, st.Step)
	}
	return "", nil
}

// ParseBudget converts a budget token into bounds. "a-b" gives [a, b], "a+"
// gives [a, BudgetUnbounded]. ok is false for malformed tokens.
func ParseBudget(token string) (min, max float64, ok bool) {
	lo, hi, ok := utils.ParseRange(token)
	if !ok {
		return 0, 0, false
	}
	if math.IsInf(hi, 1) {
		hi = BudgetUnbounded
	}
	return lo, hi, true
}

// A malformed budget token records no constraint rather than failing the step.
func applyBudget(p *model.UserPreferences, value string) {
	min, max, ok := ParseBudget(value)
	if !ok {
		p.BudgetMin, p.BudgetMax = nil, nil
		return
	}
	p.BudgetMin, p.BudgetMax = &min, &max
}

func widenBudget(p *model.UserPreferences) {
	if p.BudgetMin != nil {
		v := *p.BudgetMin / widenMinDivisor
		p.BudgetMin = &v
	}
	if p.BudgetMax != nil && *p.BudgetMax < BudgetUnbounded {
		v := math.Min(*p.BudgetMax*widenMaxMultiple, BudgetUnbounded)
		p.BudgetMax = &v
	}
}
