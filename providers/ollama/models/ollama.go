package models

import "github.com/askrepo/askrepo/providers/models"

// OllamaOptions maps onto the "options" object of the Ollama API.
type OllamaOptions struct {
	NumCtx      int      `json:"num_ctx,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

// OllamaChatCompletionRequest is the request body for /api/chat.
type OllamaChatCompletionRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
	Options  *OllamaOptions       `json:"options,omitempty"`
}

// OllamaChatCompletionResponse is one NDJSON line of a /api/chat response.
type OllamaChatCompletionResponse struct {
	Message         models.ChatMessage `json:"message"`
	Done            bool               `json:"done"`
	PromptEvalCount int                `json:"prompt_eval_count"`
	EvalCount       int                `json:"eval_count"`
}

// OllamaEmbeddingRequest is the request body for /api/embeddings.
type OllamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbeddingResponse is the response body for /api/embeddings.
type OllamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}
