package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"manuscript-backend/internal/llm"
)

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     "test-key",
		model:      "gpt-4o-mini",
		baseURL:    baseURL,
		maxTokens:  defaultMaxTokens,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func chatBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 80},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func sampleInput() llm.AnalyzeInput {
	return llm.AnalyzeInput{
		Persona:   llm.Persona{ID: "a1", Name: "Casual Commuter", PainPoints: []string{"slow openings"}},
		ChunkText: "It was a dark and stormy night.",
		Mode:      llm.ModeStandard,
		Scale:     llm.ScaleTen,
	}
}

func TestAnalyzeChunkExtractsFencedJSON(t *testing.T) {
	content := "Sure! Here's the JSON:\n```json\n{\"ratings\":{\"engagement\":8},\"feedback\":\"good\"}\n```"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("expected system+user messages, got %d", len(req.Messages))
		}
		if req.MaxTokens == 0 {
			t.Errorf("max_tokens not set")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatBody(content)))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).AnalyzeChunk(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("AnalyzeChunk: %v", err)
	}
	var payload struct {
		Ratings struct {
			Engagement float64 `json:"engagement"`
		} `json:"ratings"`
	}
	if err := json.Unmarshal(got.Raw, &payload); err != nil {
		t.Fatalf("raw payload invalid: %v", err)
	}
	if payload.Ratings.Engagement != 8 {
		t.Fatalf("engagement = %v, want 8", payload.Ratings.Engagement)
	}
	if got.Usage.PromptTokens != 120 || got.Usage.CompletionTokens != 80 {
		t.Fatalf("usage not propagated: %+v", got.Usage)
	}
}

func TestAnalyzeChunkRepairsBareKeys(t *testing.T) {
	content := "{ratings: {engagement: 7, style: 6, clarity: 8, pacing: 5, relevance: 7}, feedback: \"fine\"}"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody(content)))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).AnalyzeChunk(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("AnalyzeChunk: %v", err)
	}
	if !json.Valid(got.Raw) {
		t.Fatalf("repaired payload not valid JSON: %s", got.Raw)
	}
}

func TestAnalyzeChunkGarbageIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody("I'd rather not produce JSON today.")))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).AnalyzeChunk(context.Background(), sampleInput())
	var parseErr *llm.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Raw == "" {
		t.Fatal("ParseError should carry the raw output")
	}
}

func TestAnalyzeChunkNon2xxIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).AnalyzeChunk(context.Background(), sampleInput())
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", apiErr.StatusCode)
	}
	if apiErr.Body == "" {
		t.Fatal("APIError should carry the raw response body")
	}
	if !apiErr.Retryable() {
		t.Fatal("429 should be retryable")
	}
}

func TestNewClientValidatesInputs(t *testing.T) {
	if _, err := NewClient("", "gpt-4o-mini"); err == nil {
		t.Fatal("expected error for empty api key")
	}
	if _, err := NewClient("key", ""); err == nil {
		t.Fatal("expected error for empty model")
	}
}
