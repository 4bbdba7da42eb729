package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"
)

var planSchema = &Schema{
	Name: "test-plan",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"summary"},
		"properties": map[string]any{
			"summary": map[string]any{"type": "string"},
		},
	},
}

func TestAnthropicProvider_StructuredOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": `{"summary":"Practice safety."}`}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 40, "output_tokens": 12},
		})
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-haiku"}, option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.ModelID() != "claude-haiku-4-5-20251001" {
		t.Errorf("ModelID = %q", p.ModelID())
	}

	resp, err := p.Generate(context.Background(), UserPrompt("coach", "plan", planSchema, 256))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(resp.Content) != `{"summary":"Practice safety."}` {
		t.Errorf("content = %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 52 || resp.StopReason != "end" {
		t.Errorf("usage/stop = %+v %q", resp.Usage, resp.StopReason)
	}
}

func TestAnthropicProvider_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider(AnthropicConfig{APIKey: "k"}, option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	_, err := p.Generate(context.Background(), UserPrompt("", "x", nil, 16))

	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %v", err)
	}
}

func openAIHandler(t *testing.T, content, finish string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if rf, ok := body["response_format"].(map[string]any); ok && rf["type"] != "json_schema" {
			t.Errorf("response_format = %v", rf)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30},
		})
	}
}

func TestOpenAIProvider_StructuredOutput(t *testing.T) {
	server := httptest.NewServer(openAIHandler(t, `{"summary":"ok"}`, "stop"))
	defer server.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	resp, err := p.Generate(context.Background(), UserPrompt("sys", "plan", planSchema, 128))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Usage.TotalTokens != 30 || resp.Model != "gpt-4o-mini" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestOpenAIProvider_SchemaViolation(t *testing.T) {
	server := httptest.NewServer(openAIHandler(t, `{"wrong":1}`, "stop"))
	defer server.Close()

	p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"})
	_, err := p.Generate(context.Background(), UserPrompt("", "plan", planSchema, 128))

	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	server := httptest.NewServer(openAIHandler(t, `{"summ`, "length"))
	defer server.Close()

	p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"})
	_, err := p.Generate(context.Background(), UserPrompt("", "plan", planSchema, 4))

	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
	}
}

func TestOpenRouterProvider_UsesModelAsIs(t *testing.T) {
	server := httptest.NewServer(openAIHandler(t, `{"summary":"ok"}`, "stop"))
	defer server.Close()

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "meta/llama", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.ModelID() != "meta/llama" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
	if _, err := p.Generate(context.Background(), UserPrompt("", "plan", planSchema, 64)); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewOpenRouterProvider(OpenRouterConfig{}); err == nil {
		t.Error("expected missing key error")
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type":     "object",
		"required": []any{"summary", "focus_areas"},
		"properties": map[string]any{
			"summary": map[string]any{"type": "string", "description": "overview"},
			"focus_areas": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": []any{"a", "b"}},
			},
			"weird": map[string]any{"type": "nope"},
		},
	})

	if s.Type != genai.TypeObject {
		t.Errorf("type = %v", s.Type)
	}
	if len(s.Required) != 2 {
		t.Errorf("required = %v", s.Required)
	}
	if s.Properties["summary"].Description != "overview" {
		t.Errorf("description lost")
	}
	fa := s.Properties["focus_areas"]
	if fa.Type != genai.TypeArray || fa.Items == nil || len(fa.Items.Enum) != 2 {
		t.Errorf("focus_areas = %+v", fa)
	}
	if s.Properties["weird"].Type != genai.TypeString {
		t.Errorf("unknown type should map to string")
	}
}

func TestResolveModel(t *testing.T) {
	if got := resolveModel("gemini-flash", geminiModels); got != "gemini-2.0-flash" {
		t.Errorf("got %q", got)
	}
	if got := resolveModel("custom-model", anthropicModels); got != "custom-model" {
		t.Errorf("pass-through got %q", got)
	}
}
