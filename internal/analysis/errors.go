package analysis

import (
	"context"
	"errors"
	"net"
	"strings"

	"manuscript-backend/internal/llm"
)

var (
	ErrNotFound       = errors.New("analysis run not found")
	ErrAlreadyRunning = errors.New("analysis already running")
	ErrNoArchetypes   = errors.New("no archetypes selected")
	ErrNotStoppable   = errors.New("run is not active")
)

const (
	ErrorCodeAPI        = "API_ERROR"
	ErrorCodeLLMTimeout = "LLM_TIMEOUT"
	ErrorCodeParse      = "PARSE_ERROR"
	ErrorCodeIncomplete = "INCOMPLETE_RESPONSE"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)

// classifyTaskFailure maps a task error onto a stable code and reports
// whether a retry could plausibly succeed. Parse and schema failures
// are deterministic for a given completion, so they never retry.
func classifyTaskFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout, true
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return ErrorCodeAPI, apiErr.Retryable()
	}
	var incompleteErr *IncompleteResponseError
	if errors.As(err, &incompleteErr) {
		return ErrorCodeIncomplete, false
	}
	var parseErr *llm.ParseError
	if errors.As(err, &parseErr) {
		return ErrorCodeParse, false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorCodeAPI, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline") {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "eof") {
		return ErrorCodeAPI, true
	}
	return ErrorCodeInternal, false
}

// sanitizeError flattens an error to a single bounded line safe to
// persist and return to clients.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
