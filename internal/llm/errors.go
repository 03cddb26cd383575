package llm

import "fmt"

// APIError reports a non-2xx completion endpoint response. The raw body is
// preserved for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api error: http status %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// Retryable reports whether the failure is worth one more attempt.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// ParseError reports model output that could not be coerced into a JSON
// payload even after extraction and repair.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm output parse: %v", e.Err)
	}
	return "llm output parse: no JSON payload found"
}

func (e *ParseError) Unwrap() error { return e.Err }

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
