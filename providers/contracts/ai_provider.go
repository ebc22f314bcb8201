package contracts

import (
	"context"

	"github.com/askrepo/askrepo/providers/models"
)

// IChatAIProvider is the transport boundary to a chat AI backend.
type IChatAIProvider interface {
	// ChatCompletionRequest streams a completion for the given prompt and
	// conversation history. The channel is closed after a Done or Err response.
	ChatCompletionRequest(ctx context.Context, userInput string, prompt string, history []models.ChatMessage) <-chan models.StreamResponse

	// CompletionRequest performs a blocking, non-streamed completion. Used for
	// the short helper calls (classification, selection, assessment).
	CompletionRequest(ctx context.Context, prompt string, history []models.ChatMessage) (string, error)

	// EmbeddingRequest returns the embedding vector for the given input.
	EmbeddingRequest(ctx context.Context, input string) ([]float32, error)
}
