package chat_history

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatHistory_BoundedFIFO(t *testing.T) {
	const bound = 4
	history := NewChatHistory(bound, DefaultAnswerCap)

	for i := 0; i < bound+3; i++ {
		history.Append(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	entries := history.Render()
	assert.Len(t, entries, bound)

	// Survivors are the last `bound` entries, oldest first.
	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("q%d", i+3), entry.Query)
		assert.Equal(t, fmt.Sprintf("a%d", i+3), entry.Answer)
	}
}

func TestChatHistory_AnswerCap(t *testing.T) {
	history := NewChatHistory(4, 10)
	history.Append("q", strings.Repeat("x", 50))

	entries := history.Render()
	assert.Equal(t, strings.Repeat("x", 10), entries[0].Answer)
}

func TestChatHistory_Clear(t *testing.T) {
	history := NewChatHistory(4, DefaultAnswerCap)
	history.Append("q", "a")
	history.Clear()

	assert.Equal(t, 0, history.Len())
	assert.Empty(t, history.Render())
}

func TestChatHistory_RenderReturnsCopy(t *testing.T) {
	history := NewChatHistory(4, DefaultAnswerCap)
	history.Append("q", "a")

	entries := history.Render()
	entries[0].Answer = "mutated"

	assert.Equal(t, "a", history.Render()[0].Answer)
}
