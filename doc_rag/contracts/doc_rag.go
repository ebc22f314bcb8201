package contracts

import (
	"context"

	"github.com/askrepo/askrepo/doc_rag/models"
	provider_models "github.com/askrepo/askrepo/providers/models"
)

// AnswerMode selects the prompt used for a documentation answer.
type AnswerMode string

const (
	ModeSearch AnswerMode = "search"
	ModeAsk    AnswerMode = "ask"
	ModeTeach  AnswerMode = "teach"
)

// IDocRAG answers questions over a pre-ingested documentation chunk store.
type IDocRAG interface {
	// Retrieve returns the top-k chunks by cosine similarity to the query.
	Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
	// Answer retrieves context and streams a mode-specific answer.
	Answer(ctx context.Context, query string, mode AnswerMode, history []provider_models.ChatMessage) <-chan provider_models.StreamResponse
	// Len returns the number of loaded chunks.
	Len() int
}
