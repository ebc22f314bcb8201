package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/askrepo/askrepo/providers/contracts"
	"github.com/askrepo/askrepo/providers/models"
	ollama_models "github.com/askrepo/askrepo/providers/ollama/models"
	contracts2 "github.com/askrepo/askrepo/token_management/contracts"
)

// OllamaConfig implements the IChatAIProvider interface against an Ollama server.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	EmbeddingModel  string
	CtxWindow       int
	Temperature     *float32
	TokenManagement contracts2.ITokenManagement
}

const (
	defaultBaseURL = "http://localhost:11434/api"
	requestTimeout = 180 * time.Second
)

// NewOllamaChatProvider initializes a new Ollama provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OllamaConfig{
		BaseURL:         baseURL,
		Model:           config.Model,
		EmbeddingModel:  config.EmbeddingModel,
		CtxWindow:       config.CtxWindow,
		Temperature:     config.Temperature,
		TokenManagement: config.TokenManagement,
	}
}

func (ollamaProvider *OllamaConfig) buildMessages(userInput string, prompt string, history []models.ChatMessage) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, len(history)+2)
	messages = append(messages, history...)
	messages = append(messages, models.ChatMessage{Role: "user", Content: prompt})
	if userInput != "" {
		messages = append(messages, models.ChatMessage{Role: "user", Content: userInput})
	}
	return messages
}

func (ollamaProvider *OllamaConfig) requestOptions() *ollama_models.OllamaOptions {
	if ollamaProvider.CtxWindow == 0 && ollamaProvider.Temperature == nil {
		return nil
	}
	return &ollama_models.OllamaOptions{
		NumCtx:      ollamaProvider.CtxWindow,
		Temperature: ollamaProvider.Temperature,
	}
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, userInput string, prompt string, history []models.ChatMessage) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)
	var markdownBuffer strings.Builder // Buffer to accumulate content until newline

	go func() {
		defer close(responseChan)

		reqBody := ollama_models.OllamaChatCompletionRequest{
			Model:    ollamaProvider.Model,
			Messages: ollamaProvider.buildMessages(userInput, prompt, history),
			Stream:   true,
			Options:  ollamaProvider.requestOptions(),
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %v", err)}
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error creating request: %v", err)}
			return
		}
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("request canceled: %v", err)}
				return
			}
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error sending request: %v", err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			responseChan <- models.StreamResponse{Err: decodeAPIError(resp)}
			return
		}

		reader := bufio.NewReader(resp.Body)

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					break
				}
				responseChan <- models.StreamResponse{Err: fmt.Errorf("error reading stream: %v", err)}
				return
			}

			var response ollama_models.OllamaChatCompletionResponse
			if err := json.Unmarshal([]byte(line), &response); err != nil {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("error unmarshalling chunk: %v", err)}
				return
			}

			if len(response.Message.Content) > 0 {
				content := response.Message.Content
				markdownBuffer.WriteString(content)

				// Send a chunk once it contains a newline, then reset the buffer
				if strings.Contains(content, "\n") {
					responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
					markdownBuffer.Reset()
				}
			}

			if response.Done {
				if markdownBuffer.Len() > 0 {
					responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
					markdownBuffer.Reset()
				}

				if response.PromptEvalCount > 0 && ollamaProvider.TokenManagement != nil {
					ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
				}

				responseChan <- models.StreamResponse{Done: true}
				return
			}
		}

		if markdownBuffer.Len() > 0 {
			responseChan <- models.StreamResponse{Content: markdownBuffer.String()}
		}
		responseChan <- models.StreamResponse{Done: true}
	}()

	return responseChan
}

func (ollamaProvider *OllamaConfig) CompletionRequest(ctx context.Context, prompt string, history []models.ChatMessage) (string, error) {
	reqBody := ollama_models.OllamaChatCompletionRequest{
		Model:    ollamaProvider.Model,
		Messages: ollamaProvider.buildMessages("", prompt, history),
		Stream:   false,
		Options:  ollamaProvider.requestOptions(),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshalling request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}

	var response ollama_models.OllamaChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("error unmarshalling response: %v", err)
	}

	if response.PromptEvalCount > 0 && ollamaProvider.TokenManagement != nil {
		ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
	}

	return strings.TrimSpace(response.Message.Content), nil
}

func (ollamaProvider *OllamaConfig) EmbeddingRequest(ctx context.Context, input string) ([]float32, error) {
	model := ollamaProvider.EmbeddingModel
	if model == "" {
		model = ollamaProvider.Model
	}

	reqBody := ollama_models.OllamaEmbeddingRequest{
		Model:  model,
		Prompt: input,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/embeddings", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var response ollama_models.OllamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %v", err)
	}

	return response.Embedding, nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var apiError models.AIError
	if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error.Message == "" {
		return fmt.Errorf("API request failed with status code '%d'", resp.StatusCode)
	}
	return fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error.Message)
}
