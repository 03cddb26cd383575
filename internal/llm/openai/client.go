package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"manuscript-backend/internal/llm"
)

const (
	defaultAPIURL    = "https://api.openai.com/v1/chat/completions"
	defaultMaxTokens = 1200
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
}

// NewClient constructs a new OpenAI client. The per-request timeout defaults
// to 120s and can be overridden with OPENAI_TIMEOUT_SECONDS; a hung request
// must never stall a whole batch.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	baseURL := defaultAPIURL
	if raw := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); raw != "" {
		baseURL = raw
	}
	return &Client{
		apiKey:      apiKey,
		model:       model,
		baseURL:     baseURL,
		temperature: 0.7,
		maxTokens:   defaultMaxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

// AnalyzeChunk performs exactly one completion cycle. Non-2xx responses
// surface as *llm.APIError with the raw body attached; output that cannot be
// coerced into a JSON payload after extraction and one repair pass surfaces
// as *llm.ParseError. No retries happen here.
func (c *Client) AnalyzeChunk(ctx context.Context, input llm.AnalyzeInput) (llm.Completion, error) {
	messages := BuildMessages(input)
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    reqMessages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return llm.Completion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return llm.Completion{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Completion{}, fmt.Errorf("openai request timeout: %w", err)
		}
		return llm.Completion{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.Completion{}, &llm.APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.Completion{}, fmt.Errorf("openai response parse: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return llm.Completion{}, &llm.ParseError{Raw: string(body), Err: errors.New("response missing choices")}
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return llm.Completion{}, &llm.ParseError{Raw: string(body), Err: errors.New("response empty content")}
	}

	raw, err := coercePayload(content)
	if err != nil {
		return llm.Completion{}, err
	}
	return llm.Completion{Raw: raw, Usage: toUsage(parsed.Usage)}, nil
}

// coercePayload extracts the first balanced JSON payload from model output,
// applying one repair pass when the extraction is not valid JSON.
func coercePayload(content string) (json.RawMessage, error) {
	candidate, ok := llm.ExtractJSON(content)
	if !ok {
		return nil, &llm.ParseError{Raw: content}
	}
	if json.Valid([]byte(candidate)) {
		return json.RawMessage(candidate), nil
	}
	repaired := llm.RepairJSON(candidate)
	if json.Valid([]byte(repaired)) {
		return json.RawMessage(repaired), nil
	}
	return nil, &llm.ParseError{Raw: content, Err: errors.New("payload invalid after repair")}
}

func toUsage(raw *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) llm.Usage {
	if raw == nil {
		return llm.Usage{}
	}
	return llm.Usage{
		PromptTokens:     raw.PromptTokens,
		CompletionTokens: raw.CompletionTokens,
	}
}

var _ llm.Client = (*Client)(nil)
