package analysis

import (
	"context"
	"time"

	"manuscript-backend/internal/llm"
	"manuscript-backend/internal/shared/telemetry"
)

const llmRetryBaseDelay = 300 * time.Millisecond

// retryingClient retries a transient completion failure once. The
// underlying client never retries on its own; retry policy lives here
// with the rest of the scheduling decisions.
type retryingClient struct {
	base  llm.Client
	runID string
	delay time.Duration
}

func newRetryingClient(base llm.Client, runID string) retryingClient {
	return retryingClient{base: base, runID: runID, delay: llmRetryBaseDelay}
}

// analyze returns the completion and the number of API calls made.
func (r retryingClient) analyze(ctx context.Context, input llm.AnalyzeInput) (llm.Completion, int, error) {
	resp, err := r.base.AnalyzeChunk(ctx, input)
	if err == nil {
		return resp, 1, nil
	}
	if _, retryable := classifyTaskFailure(err); !retryable {
		return llm.Completion{}, 1, err
	}

	telemetry.Info("analysis.llm_retry", map[string]any{
		"run_id":       r.runID,
		"archetype_id": input.Persona.ID,
		"chunk_index":  input.ChunkIndex,
		"error":        sanitizeError(err),
	})
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return llm.Completion{}, 1, ctx.Err()
	}

	resp, err = r.base.AnalyzeChunk(ctx, input)
	return resp, 2, err
}
