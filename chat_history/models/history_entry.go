package models

// HistoryEntry is one completed query/answer exchange.
type HistoryEntry struct {
	Query  string
	Answer string
}
