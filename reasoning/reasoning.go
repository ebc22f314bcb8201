package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/askrepo/askrepo/embed_data"
	provider_contracts "github.com/askrepo/askrepo/providers/contracts"
	provider_models "github.com/askrepo/askrepo/providers/models"
	"github.com/askrepo/askrepo/reasoning/contracts"
	"github.com/askrepo/askrepo/reasoning/models"
)

// MaxFilesPerSelection caps how many files one selection round may return.
const MaxFilesPerSelection = 3

// UnavailableError wraps a failed reasoning call. The agent aborts the
// current query on it but the session stays alive.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("reasoning engine unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ReasoningEngine routes structured decisions to the helper model and
// answer generation to the chat model.
type ReasoningEngine struct {
	helperProvider provider_contracts.IChatAIProvider
	chatProvider   provider_contracts.IChatAIProvider
	botName        string
}

// NewReasoningEngine creates the engine over its two providers.
func NewReasoningEngine(helperProvider provider_contracts.IChatAIProvider, chatProvider provider_contracts.IChatAIProvider, botName string) contracts.IReasoningEngine {
	if botName == "" {
		botName = "askrepo"
	}
	return &ReasoningEngine{
		helperProvider: helperProvider,
		chatProvider:   chatProvider,
		botName:        botName,
	}
}

func (engine *ReasoningEngine) Classify(ctx context.Context, query string, memoryPaths []string, history []provider_models.ChatMessage) (models.Classification, error) {
	memoryInfo := ""
	if len(memoryPaths) > 0 {
		memoryInfo = fmt.Sprintf("\n\nCurrently loaded files: %s", strings.Join(memoryPaths, ", "))
	}

	prompt := fmt.Sprintf(string(embed_data.ClassifyQueryPrompt), query, memoryInfo)
	response, err := engine.helperProvider.CompletionRequest(ctx, prompt, history)
	if err != nil {
		return models.Classification{}, &UnavailableError{Op: "classify", Err: err}
	}

	return ParseClassification(response), nil
}

func (engine *ReasoningEngine) SelectFiles(ctx context.Context, query string, filesOverview string, alreadyAnalyzed []string, memoryPaths []string, suggestion string) (models.Selection, error) {
	analyzedInfo := ""
	if len(alreadyAnalyzed) > 0 {
		analyzedInfo = fmt.Sprintf("\n\nAlready analyzed files: %s", strings.Join(alreadyAnalyzed, ", "))
	}
	memoryInfo := ""
	if len(memoryPaths) > 0 {
		memoryInfo = fmt.Sprintf("\n\nFiles available in cache: %s", strings.Join(memoryPaths, ", "))
	}
	question := query
	if suggestion != "" {
		question = fmt.Sprintf("%s\n\nHint from the previous round: %s", query, suggestion)
	}

	prompt := fmt.Sprintf(string(embed_data.SelectFilesPrompt), filesOverview, analyzedInfo, memoryInfo, question)
	response, err := engine.helperProvider.CompletionRequest(ctx, prompt, nil)
	if err != nil {
		return models.Selection{}, &UnavailableError{Op: "select files", Err: err}
	}

	return ParseSelection(response), nil
}

func (engine *ReasoningEngine) AssessConfidence(ctx context.Context, query string, evidence string, history []provider_models.ChatMessage) (models.Assessment, error) {
	if evidence == "" {
		evidence = "(no file content was loaded)"
	}
	prompt := fmt.Sprintf(string(embed_data.AssessConfidencePrompt), query, evidence)
	response, err := engine.helperProvider.CompletionRequest(ctx, prompt, history)
	if err != nil {
		return models.Assessment{}, &UnavailableError{Op: "assess confidence", Err: err}
	}

	return ParseAssessment(response), nil
}

func (engine *ReasoningEngine) GenerateAnswer(ctx context.Context, codeContext string, query string, history []provider_models.ChatMessage) <-chan provider_models.StreamResponse {
	prompt := fmt.Sprintf(string(embed_data.GenerateAnswerPrompt), codeContext, query)
	return engine.chatProvider.ChatCompletionRequest(ctx, "", prompt, history)
}

func (engine *ReasoningEngine) MemoryAnswer(ctx context.Context, codeContext string, query string, history []provider_models.ChatMessage) <-chan provider_models.StreamResponse {
	prompt := fmt.Sprintf(string(embed_data.MemoryAnswerPrompt), codeContext, query)
	return engine.chatProvider.ChatCompletionRequest(ctx, "", prompt, history)
}

func (engine *ReasoningEngine) DirectAnswer(ctx context.Context, query string, history []provider_models.ChatMessage) <-chan provider_models.StreamResponse {
	prompt := fmt.Sprintf(string(embed_data.DirectAnswerPrompt), engine.botName, query)
	return engine.chatProvider.ChatCompletionRequest(ctx, "", prompt, history)
}
