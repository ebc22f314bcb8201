package contracts

import (
	"context"

	providerModels "github.com/askrepo/askrepo/providers/models"
	"github.com/askrepo/askrepo/reasoning/models"
)

// IReasoningEngine wraps every model call the agent makes. The lightweight
// decisions (classify, select, assess) run on the helper model and return
// parsed structures; the answer calls run on the chat model and stream.
type IReasoningEngine interface {
	Classify(ctx context.Context, query string, memoryPaths []string, history []providerModels.ChatMessage) (models.Classification, error)
	SelectFiles(ctx context.Context, query string, filesOverview string, alreadyAnalyzed []string, memoryPaths []string, suggestion string) (models.Selection, error)
	AssessConfidence(ctx context.Context, query string, evidence string, history []providerModels.ChatMessage) (models.Assessment, error)

	GenerateAnswer(ctx context.Context, codeContext string, query string, history []providerModels.ChatMessage) <-chan providerModels.StreamResponse
	MemoryAnswer(ctx context.Context, codeContext string, query string, history []providerModels.ChatMessage) <-chan providerModels.StreamResponse
	DirectAnswer(ctx context.Context, query string, history []providerModels.ChatMessage) <-chan providerModels.StreamResponse
}
