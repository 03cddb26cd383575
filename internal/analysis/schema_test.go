package analysis

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"manuscript-backend/internal/archetypes"
	"manuscript-backend/internal/chunker"
	"manuscript-backend/internal/llm"
)

func testTask(mode llm.Mode) Task {
	return Task{
		Archetype: archetypes.Archetype{ID: "a1", Name: "Casual Commuter"},
		Chunk:     chunker.Chunk{Index: 2, Title: "Chapter 3", Content: "text"},
		Mode:      mode,
	}
}

const validStandardJSON = `{
	"ratings": {"engagement": 8, "style": 7, "clarity": 9, "pacing": 6, "relevance": 7},
	"overallRating": 7.5,
	"feedback": "Held my attention after a slow first page.",
	"buyingProbability": 0.7,
	"recommendationLikelihood": 0.6,
	"expectedReviewSentiment": "Positive",
	"marketingInsights": ["commute-friendly chapters", "strong hook potential"]
}`

func TestDecodeStandardResult(t *testing.T) {
	result, err := decodeResult(testTask(llm.ModeStandard), llm.ScaleTen, json.RawMessage(validStandardJSON))
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if result.ArchetypeID != "a1" || result.ChunkIndex != 2 || result.ChunkTitle != "Chapter 3" {
		t.Fatalf("task identity not carried: %+v", result)
	}
	if result.Ratings == nil || result.Ratings.Engagement != 8 {
		t.Fatalf("ratings not decoded: %+v", result.Ratings)
	}
	if result.OverallRating != 7.5 {
		t.Fatalf("overallRating = %v", result.OverallRating)
	}
	if result.Sentiment != "positive" {
		t.Fatalf("sentiment not normalized: %q", result.Sentiment)
	}
	if len(result.MarketingInsights) != 2 {
		t.Fatalf("marketing insights lost: %+v", result.MarketingInsights)
	}
}

func TestDecodeMissingFieldsIsIncomplete(t *testing.T) {
	raw := `{"ratings": {"engagement": 8, "style": 7, "clarity": 9}, "overallRating": 7}`
	_, err := decodeResult(testTask(llm.ModeStandard), llm.ScaleTen, json.RawMessage(raw))
	var incomplete *IncompleteResponseError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteResponseError, got %v", err)
	}
	joined := strings.Join(incomplete.Missing, ",")
	for _, want := range []string{"feedback", "ratings.pacing", "ratings.relevance"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing list lacks %q: %v", want, incomplete.Missing)
		}
	}
	if strings.Contains(joined, "ratings.engagement") {
		t.Errorf("present field reported missing: %v", incomplete.Missing)
	}
}

func TestDecodeClampsOutOfRangeValues(t *testing.T) {
	raw := `{
		"ratings": {"engagement": 14, "style": 0, "clarity": 5, "pacing": 5, "relevance": 5},
		"feedback": "fine",
		"buyingProbability": 1.8,
		"recommendationLikelihood": -0.2
	}`
	result, err := decodeResult(testTask(llm.ModeStandard), llm.ScaleTen, json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if result.Ratings.Engagement != 10 || result.Ratings.Style != 1 {
		t.Fatalf("ratings not clamped to scale: %+v", result.Ratings)
	}
	if result.BuyingProbability != 1 || result.RecommendProbability != 0 {
		t.Fatalf("probabilities not clamped: %v %v", result.BuyingProbability, result.RecommendProbability)
	}
}

func TestDecodeDerivesOverallRatingWhenAbsent(t *testing.T) {
	raw := `{
		"ratings": {"engagement": 10, "style": 8, "clarity": 6, "pacing": 8, "relevance": 8},
		"feedback": "fine"
	}`
	result, err := decodeResult(testTask(llm.ModeStandard), llm.ScaleTen, json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if result.OverallRating != 8 {
		t.Fatalf("derived overall = %v, want 8", result.OverallRating)
	}
}

func TestDecodeReactionResult(t *testing.T) {
	raw := `{
		"reaction": "I nearly put it down at the second page, then the fire started.",
		"stoppedReading": false,
		"expectedReviewSentiment": "neutral"
	}`
	result, err := decodeResult(testTask(llm.ModeReaction), llm.ScaleTen, json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if result.Reaction == "" || result.Sentiment != "neutral" || result.StoppedReading {
		t.Fatalf("reaction fields wrong: %+v", result)
	}
	if result.Ratings != nil {
		t.Fatal("reaction mode should not carry ratings")
	}
}

func TestDecodeReactionMissingFields(t *testing.T) {
	_, err := decodeResult(testTask(llm.ModeReaction), llm.ScaleTen, json.RawMessage(`{"stoppedReading": true}`))
	var incomplete *IncompleteResponseError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteResponseError, got %v", err)
	}
}

func TestDecodeInvalidJSONIsParseError(t *testing.T) {
	_, err := decodeResult(testTask(llm.ModeStandard), llm.ScaleTen, json.RawMessage(`{"ratings":`))
	var parseErr *llm.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestClassifyTaskFailure(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  string
		wantRetry bool
	}{
		{"api 500", &llm.APIError{StatusCode: 500, Body: "oops"}, ErrorCodeAPI, true},
		{"api 429", &llm.APIError{StatusCode: 429, Body: "slow down"}, ErrorCodeAPI, true},
		{"api 401", &llm.APIError{StatusCode: 401, Body: "bad key"}, ErrorCodeAPI, false},
		{"parse", &llm.ParseError{Raw: "x", Err: errors.New("bad")}, ErrorCodeParse, false},
		{"incomplete", &IncompleteResponseError{Mode: llm.ModeStandard, Missing: []string{"feedback"}}, ErrorCodeIncomplete, false},
		{"other", errors.New("weird"), ErrorCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, retry := classifyTaskFailure(tt.err)
			if code != tt.wantCode || retry != tt.wantRetry {
				t.Fatalf("classify(%v) = (%s, %v), want (%s, %v)", tt.err, code, retry, tt.wantCode, tt.wantRetry)
			}
		})
	}
}
