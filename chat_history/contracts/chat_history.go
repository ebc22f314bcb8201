package contracts

import "github.com/askrepo/askrepo/chat_history/models"

// IChatHistory is the bounded log of prior query/answer exchanges.
type IChatHistory interface {
	// Append stores an exchange, truncating the answer to the configured cap
	// and evicting the oldest entry when the bound is exceeded.
	Append(query string, answer string)
	// Render returns the retained entries, oldest first.
	Render() []models.HistoryEntry
	// Clear empties the log.
	Clear()
	// Len returns the number of retained entries.
	Len() int
}
