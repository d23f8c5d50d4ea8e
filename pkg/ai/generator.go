package ai

import "context"

// ChatRequest is a single chat-completion call. When ImageDataURI is set the
// user message carries both a text part and an image part, and callers are
// expected to pick a vision-capable Model.
type ChatRequest struct {
	Model        string
	System       string
	UserText     string
	ImageDataURI string
	Temperature  float64
	MaxTokens    int
}

// ChatGenerator produces a single textual completion for a chat request.
// All LLM providers implement this interface.
type ChatGenerator interface {
	GenerateChat(ctx context.Context, req ChatRequest) (string, error)
}
