package providers

import (
	"fmt"

	"github.com/askrepo/askrepo/providers/contracts"
	"github.com/askrepo/askrepo/providers/ollama"
	contracts2 "github.com/askrepo/askrepo/token_management/contracts"
)

// AIProviderConfig is the provider block of the application configuration.
type AIProviderConfig struct {
	Provider        string   `mapstructure:"provider"`
	BaseURL         string   `mapstructure:"base_url"`
	ChatModel       string   `mapstructure:"chat_model"`
	HelperModel     string   `mapstructure:"helper_model"`
	EmbeddingModel  string   `mapstructure:"embedding_model"`
	ChatCtxWindow   int      `mapstructure:"chat_ctx_window"`
	HelperCtxWindow int      `mapstructure:"helper_ctx_window"`
	Temperature     *float32 `mapstructure:"temperature"`
}

// ChatProviderFactory creates a chat provider for the given model and context
// window. The chat model handles answer generation; the helper model handles
// the short classification, selection, and assessment calls.
func ChatProviderFactory(config *AIProviderConfig, model string, ctxWindow int, tokenManagement contracts2.ITokenManagement) (contracts.IChatAIProvider, error) {
	switch config.Provider {
	case "ollama", "":
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           model,
			EmbeddingModel:  config.EmbeddingModel,
			CtxWindow:       ctxWindow,
			Temperature:     config.Temperature,
			TokenManagement: tokenManagement,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}
