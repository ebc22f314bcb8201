package chat_history

import (
	"sync"

	"github.com/askrepo/askrepo/chat_history/contracts"
	"github.com/askrepo/askrepo/chat_history/models"
)

const (
	// DefaultMaxEntries keeps the last 4 exchanges.
	DefaultMaxEntries = 4
	// DefaultAnswerCap truncates stored answers to save prompt space.
	DefaultAnswerCap = 500
)

// ChatHistory is a bounded FIFO of query/answer exchanges. Entries are never
// mutated after append; eviction is strictly oldest-first.
type ChatHistory struct {
	mutex      sync.RWMutex
	maxEntries int
	answerCap  int
	entries    []models.HistoryEntry
}

// NewChatHistory creates a history bounded at maxEntries exchanges with
// answers capped at answerCap characters. Non-positive arguments fall back to
// the defaults.
func NewChatHistory(maxEntries int, answerCap int) contracts.IChatHistory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if answerCap <= 0 {
		answerCap = DefaultAnswerCap
	}
	return &ChatHistory{maxEntries: maxEntries, answerCap: answerCap}
}

func (h *ChatHistory) Append(query string, answer string) {
	if len(answer) > h.answerCap {
		answer = answer[:h.answerCap]
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.entries = append(h.entries, models.HistoryEntry{Query: query, Answer: answer})
	if len(h.entries) > h.maxEntries {
		h.entries = h.entries[len(h.entries)-h.maxEntries:]
	}
}

func (h *ChatHistory) Render() []models.HistoryEntry {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	entries := make([]models.HistoryEntry, len(h.entries))
	copy(entries, h.entries)
	return entries
}

func (h *ChatHistory) Clear() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.entries = nil
}

func (h *ChatHistory) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.entries)
}
