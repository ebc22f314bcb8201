package models

// QueryAction is the route a query takes through the session.
type QueryAction string

const (
	ActionSearchCode QueryAction = "SEARCH_CODE"
	ActionUseMemory  QueryAction = "USE_MEMORY"
	ActionDirect     QueryAction = "DIRECT"
)

// Confidence grades how well the gathered files cover a question.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Classification is the helper model's routing decision for a query.
type Classification struct {
	Action QueryAction `json:"action"`
	Reason string      `json:"reason"`
}

// Selection is one round of file picks. Sufficient means the model judged
// the already analyzed files enough to answer without loading more.
type Selection struct {
	Files      []string `json:"files"`
	Reasoning  string   `json:"reasoning"`
	Sufficient bool     `json:"sufficient"`
}

// Assessment grades the gathered context after a load round.
type Assessment struct {
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
	Suggestion string     `json:"suggestion"`
}
