package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAIGenerator calls any OpenAI-compatible /v1/chat/completions endpoint.
// Works with the OpenAI API itself as well as vLLM, LiteLLM, OpenRouter and
// other compatible gateways.
type OpenAIGenerator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIGenerator builds an OpenAI-compatible ChatGenerator.
// baseURL should include the /v1 prefix, e.g. "https://api.openai.com/v1".
// apiKey can be empty for local gateways that do not require authentication.
func NewOpenAIGenerator(baseURL, apiKey string) *OpenAIGenerator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &OpenAIGenerator{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// GenerateChat implements ChatGenerator using the OpenAI chat completions API.
func (g *OpenAIGenerator) GenerateChat(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", fmt.Errorf("openai generation model required")
	}
	messages := make([]oaiMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, oaiMessage{Role: "system", Content: oaiText(req.System)})
	}
	messages = append(messages, oaiMessage{Role: "user", Content: userContent(req)})

	reqBody := oaiChatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := g.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return "", fmt.Errorf("openai api error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("openai api error: %s", resp.Status)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai api")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from openai api")
	}
	return text, nil
}

func userContent(req ChatRequest) oaiContent {
	if req.ImageDataURI == "" {
		return oaiText(req.UserText)
	}
	return oaiContent{parts: []oaiPart{
		{Type: "text", Text: req.UserText},
		{Type: "image_url", ImageURL: &oaiImageURL{URL: req.ImageDataURI}},
	}}
}

// OpenAI-compatible request/response types. Message content is either a plain
// string or a list of typed parts; oaiContent marshals to whichever form the
// message needs and always unmarshals responses from the string form.

type oaiContent struct {
	text  string
	parts []oaiPart
}

func oaiText(s string) oaiContent { return oaiContent{text: s} }

func (c oaiContent) MarshalJSON() ([]byte, error) {
	if len(c.parts) > 0 {
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

func (c *oaiContent) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.text)
}

type oaiPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *oaiImageURL `json:"image_url,omitempty"`
}

type oaiImageURL struct {
	URL string `json:"url"`
}

type oaiMessage struct {
	Role    string     `json:"role"`
	Content oaiContent `json:"content"`
}

type oaiChatRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	Temperature float64      `json:"temperature,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
