package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIGeneratorTextOnly(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-1" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hello  "}}]}`))
	}))
	defer server.Close()

	g := NewOpenAIGenerator(server.URL+"/v1", "key-1")
	text, err := g.GenerateChat(context.Background(), ChatRequest{
		Model:       "gpt-4",
		System:      "you are a cook",
		UserText:    "what can I make?",
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected trimmed content, got %q", text)
	}
	if got["model"] != "gpt-4" {
		t.Fatalf("unexpected model: %v", got["model"])
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(msgs))
	}
	user := msgs[1].(map[string]any)
	if _, ok := user["content"].(string); !ok {
		t.Fatalf("text-only request should send string content, got %T", user["content"])
	}
}

func TestOpenAIGeneratorVisionParts(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	g := NewOpenAIGenerator(server.URL, "")
	_, err := g.GenerateChat(context.Background(), ChatRequest{
		Model:        "gpt-4-vision-preview",
		UserText:     "what is in this photo?",
		ImageDataURI: "data:image/jpeg;base64,aGk=",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	msgs := got["messages"].([]any)
	user := msgs[len(msgs)-1].(map[string]any)
	parts, ok := user["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("vision request should send two content parts, got %v", user["content"])
	}
	image := parts[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Fatalf("second part should be image_url, got %v", image["type"])
	}
	if image["image_url"].(map[string]any)["url"] != "data:image/jpeg;base64,aGk=" {
		t.Fatalf("image data uri not forwarded: %v", image["image_url"])
	}
}

func TestOpenAIGeneratorAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	g := NewOpenAIGenerator(server.URL, "")
	if _, err := g.GenerateChat(context.Background(), ChatRequest{Model: "gpt-4", UserText: "hi"}); err == nil {
		t.Fatalf("expected api error")
	}
}
