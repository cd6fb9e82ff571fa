package model

// Button is one choice offered to the user at a conversation step
type Button struct {
	Label       string `json:"label"`
	Value       string `json:"value,omitempty"`
	Action      string `json:"action"` // action kind the client sends back when pressed
	MultiSelect bool   `json:"multiSelect,omitempty"`
}

// ChatAction is a user action sent through the conversation transport
type ChatAction struct {
	Kind  string `json:"kind" binding:"required"` // select, toggle, next, review, restart
	Value string `json:"value,omitempty"`
}

// ChatReply is what the conversation transport returns after every action
type ChatReply struct {
	SessionID   string          `json:"session_id"`
	Step        string          `json:"step"`
	Message     string          `json:"message"`
	Buttons     []Button        `json:"buttons,omitempty"`
	Preferences UserPreferences `json:"preferences"`
	Results     []MatchResult   `json:"results,omitempty"`
	NoMatch     bool            `json:"no_match,omitempty"`
}

// SearchRequest represents a direct preference search request
type SearchRequest struct {
	Preferences UserPreferences `json:"preferences"`
	Mode        string          `json:"mode,omitempty"` // "semantic" (default) or "filter"
}

// SearchResponse represents a ranked search result response
type SearchResponse struct {
	Results []MatchResult `json:"results"`
	Total   int           `json:"total"`
	Query   string        `json:"query"`
	Mode    string        `json:"mode"`
	Took    int64         `json:"took_ms"`
}

// IndexReport summarises one indexing run for a source document
type IndexReport struct {
	Source  string   `json:"source"`
	Found   int      `json:"found"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// SourceInfo describes one source held by the corpus
type SourceInfo struct {
	Source  string `json:"source" db:"source"`
	Records int    `json:"records" db:"records"`
}

// SearchLog is one executed search as recorded for analysis
type SearchLog struct {
	Query       string
	Preferences UserPreferences
	Mode        string
	ResultCount int
	RecordIDs   []string
	TookMs      int64
}
