package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// NoPreference is the location choice meaning "any location"
const NoPreference = "No Preference"

// UserPreferences is the preference record built up during a conversation.
// Every field is optional; absence means "no preference".
type UserPreferences struct {
	PropertyType string   `json:"propertyType,omitempty"`
	Size         string   `json:"size,omitempty"`     // range token, e.g. "1200-1800" or "2500+"
	Bedrooms     string   `json:"bedrooms,omitempty"` // e.g. "3 BHK" or "4+ BHK"
	Location     string   `json:"location,omitempty"`
	BudgetMin    *float64 `json:"budgetMin,omitempty"`
	BudgetMax    *float64 `json:"budgetMax,omitempty"`
	Near         []string `json:"near,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}

// Value implements driver.Valuer interface
func (p UserPreferences) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Clone returns a deep copy so callers can mutate without aliasing
func (p UserPreferences) Clone() UserPreferences {
	out := p
	if p.BudgetMin != nil {
		v := *p.BudgetMin
		out.BudgetMin = &v
	}
	if p.BudgetMax != nil {
		v := *p.BudgetMax
		out.BudgetMax = &v
	}
	out.Near = append([]string(nil), p.Near...)
	out.Amenities = append([]string(nil), p.Amenities...)
	if len(out.Near) == 0 {
		out.Near = nil
	}
	if len(out.Amenities) == 0 {
		out.Amenities = nil
	}
	return out
}

// IsEmpty reports whether no preference has been recorded
func (p UserPreferences) IsEmpty() bool {
	return p.PropertyType == "" && p.Size == "" && p.Bedrooms == "" && p.Location == "" &&
		p.BudgetMin == nil && p.BudgetMax == nil && len(p.Near) == 0 && len(p.Amenities) == 0
}

// ConversationState is one chat session: the current step plus what was collected so far
type ConversationState struct {
	SessionID   string          `json:"session_id"`
	Step        string          `json:"step"`
	Preferences UserPreferences `json:"preferences"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
