package models

// StreamResponse carries one chunk of a streamed chat completion.
type StreamResponse struct {
	Content string
	Done    bool
	Err     error
}

// ChatMessage is a single prior conversation turn passed to the provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AIError represents an error response returned by the AI provider API.
type AIError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
