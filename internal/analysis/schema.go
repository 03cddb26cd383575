package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"manuscript-backend/internal/llm"
)

// IncompleteResponseError marks a payload that parsed as JSON but is
// missing required fields. Optional-field defaults are never invented
// for required data.
type IncompleteResponseError struct {
	Mode    llm.Mode
	Missing []string
}

func (e *IncompleteResponseError) Error() string {
	return fmt.Sprintf("incomplete %s response: missing %s", e.Mode, strings.Join(e.Missing, ", "))
}

type ratingsPayload struct {
	Engagement *float64 `json:"engagement"`
	Style      *float64 `json:"style"`
	Clarity    *float64 `json:"clarity"`
	Pacing     *float64 `json:"pacing"`
	Relevance  *float64 `json:"relevance"`
}

type standardPayload struct {
	Ratings                  *ratingsPayload `json:"ratings"`
	OverallRating            *float64        `json:"overallRating"`
	Feedback                 *string         `json:"feedback"`
	BuyingProbability        *float64        `json:"buyingProbability"`
	RecommendationLikelihood *float64        `json:"recommendationLikelihood"`
	ExpectedReviewSentiment  *string         `json:"expectedReviewSentiment"`
	MarketingInsights        []string        `json:"marketingInsights"`
}

type reactionPayload struct {
	Reaction                *string `json:"reaction"`
	StoppedReading          *bool   `json:"stoppedReading"`
	ExpectedReviewSentiment *string `json:"expectedReviewSentiment"`
}

// decodeResult validates the raw completion payload for the task's
// mode and maps it onto a Result. Ratings are clamped to the scale and
// probabilities to [0,1]; missing required fields fail the task.
func decodeResult(task Task, scale llm.RatingScale, raw json.RawMessage) (Result, error) {
	result := Result{
		ArchetypeID:   task.Archetype.ID,
		ArchetypeName: task.Archetype.Name,
		ChunkIndex:    task.Chunk.Index,
		ChunkTitle:    task.Chunk.Title,
		Mode:          task.Mode,
	}
	if task.Mode == llm.ModeReaction {
		return decodeReaction(result, raw)
	}
	return decodeRated(result, scale, raw)
}

func decodeRated(result Result, scale llm.RatingScale, raw json.RawMessage) (Result, error) {
	var payload standardPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Result{}, &llm.ParseError{Raw: string(raw), Err: err}
	}

	var missing []string
	if payload.Ratings == nil {
		missing = append(missing, "ratings")
	} else {
		for field, v := range map[string]*float64{
			"ratings.engagement": payload.Ratings.Engagement,
			"ratings.style":      payload.Ratings.Style,
			"ratings.clarity":    payload.Ratings.Clarity,
			"ratings.pacing":     payload.Ratings.Pacing,
			"ratings.relevance":  payload.Ratings.Relevance,
		} {
			if v == nil {
				missing = append(missing, field)
			}
		}
	}
	if payload.Feedback == nil || strings.TrimSpace(*payload.Feedback) == "" {
		missing = append(missing, "feedback")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Result{}, &IncompleteResponseError{Mode: result.Mode, Missing: missing}
	}

	max := scale.Max()
	ratings := Ratings{
		Engagement: clamp(*payload.Ratings.Engagement, 1, max),
		Style:      clamp(*payload.Ratings.Style, 1, max),
		Clarity:    clamp(*payload.Ratings.Clarity, 1, max),
		Pacing:     clamp(*payload.Ratings.Pacing, 1, max),
		Relevance:  clamp(*payload.Ratings.Relevance, 1, max),
	}
	result.Ratings = &ratings
	result.Feedback = strings.TrimSpace(*payload.Feedback)

	if payload.OverallRating != nil {
		result.OverallRating = clamp(*payload.OverallRating, 1, max)
	} else {
		result.OverallRating = (ratings.Engagement + ratings.Style + ratings.Clarity + ratings.Pacing + ratings.Relevance) / 5
	}
	if payload.BuyingProbability != nil {
		result.BuyingProbability = clamp(*payload.BuyingProbability, 0, 1)
	}
	if payload.RecommendationLikelihood != nil {
		result.RecommendProbability = clamp(*payload.RecommendationLikelihood, 0, 1)
	}
	if payload.ExpectedReviewSentiment != nil {
		result.Sentiment = normalizeSentiment(*payload.ExpectedReviewSentiment)
	}
	result.MarketingInsights = payload.MarketingInsights
	return result, nil
}

func decodeReaction(result Result, raw json.RawMessage) (Result, error) {
	var payload reactionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Result{}, &llm.ParseError{Raw: string(raw), Err: err}
	}

	var missing []string
	if payload.Reaction == nil || strings.TrimSpace(*payload.Reaction) == "" {
		missing = append(missing, "reaction")
	}
	if payload.ExpectedReviewSentiment == nil {
		missing = append(missing, "expectedReviewSentiment")
	}
	if len(missing) > 0 {
		return Result{}, &IncompleteResponseError{Mode: result.Mode, Missing: missing}
	}

	result.Reaction = strings.TrimSpace(*payload.Reaction)
	result.Sentiment = normalizeSentiment(*payload.ExpectedReviewSentiment)
	if payload.StoppedReading != nil {
		result.StoppedReading = *payload.StoppedReading
	}
	return result, nil
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return "positive"
	case "negative":
		return "negative"
	default:
		return "neutral"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
