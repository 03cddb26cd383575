package openai

import (
	"fmt"
	"strings"

	"manuscript-backend/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const feedbackWordBudget = 150

const (
	systemPromptStandard = "You are a reader simulation engine. Respond with a single JSON object only. No markdown, no prose outside the object. Never omit keys."
	systemPromptReaction = "You are simulating a reader's unfiltered inner monologue. Respond with a single JSON object only. No markdown, no prose outside the object."
	systemPromptInsight  = "You are a publishing market analyst. Respond with a single JSON object only. No markdown, no prose outside the object. Never omit keys."
)

// BuildMessages renders the chat messages for one analysis task. Templates
// are selected by input.Mode so new variants never touch the scheduler.
func BuildMessages(input llm.AnalyzeInput) []Message {
	switch input.Mode {
	case llm.ModeReaction:
		return []Message{
			{Role: "system", Content: systemPromptReaction},
			{Role: "user", Content: reactionUserPrompt(input)},
		}
	case llm.ModeInsight:
		return []Message{
			{Role: "system", Content: systemPromptInsight},
			{Role: "user", Content: insightUserPrompt(input)},
		}
	default:
		return []Message{
			{Role: "system", Content: systemPromptStandard},
			{Role: "user", Content: standardUserPrompt(input)},
		}
	}
}

func personaBlock(p llm.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Demographics: %s\n", p.Demographics)
	fmt.Fprintf(&b, "Reading preferences: %s\n", p.ReadingPreferences)
	fmt.Fprintf(&b, "Personality traits: %s\n", p.PersonalityTraits)
	fmt.Fprintf(&b, "Motivations: %s\n", p.Motivations)
	fmt.Fprintf(&b, "Pain points: %s\n", strings.Join(p.PainPoints, "; "))
	return b.String()
}

func standardUserPrompt(input llm.AnalyzeInput) string {
	scale := input.Scale
	if scale == "" {
		scale = llm.ScaleTen
	}
	return fmt.Sprintf(`You are reading a manuscript excerpt as the reader described below.

READER PROFILE
%s
MANUSCRIPT EXCERPT (segment %d)
%s

Evaluate the excerpt strictly from this reader's perspective. Return JSON with exactly these keys:
{
  "ratings": {"engagement": n, "style": n, "clarity": n, "pacing": n, "relevance": n},
  "overallRating": n,
  "feedback": "what this reader would say, at most %d words",
  "buyingProbability": p,
  "recommendationLikelihood": p,
  "expectedReviewSentiment": "positive" | "neutral" | "negative",
  "marketingInsights": ["2-3 short observations useful for marketing this book"]
}
All ratings n are numbers on a %s scale. Both probabilities p are numbers between 0 and 1.`,
		personaBlock(input.Persona), input.ChunkIndex, input.ChunkText, feedbackWordBudget, scale)
}

func reactionUserPrompt(input llm.AnalyzeInput) string {
	return fmt.Sprintf(`Read the excerpt below as the reader described here, and narrate the
reading experience as it happens: where attention drifts, what delights,
what grates.

READER PROFILE
%s
MANUSCRIPT EXCERPT (segment %d)
%s

Return JSON with exactly these keys:
{
  "reaction": "first-person stream of thought, at most %d words",
  "stoppedReading": true | false,
  "expectedReviewSentiment": "positive" | "neutral" | "negative"
}`,
		personaBlock(input.Persona), input.ChunkIndex, input.ChunkText, 2*feedbackWordBudget)
}

func insightUserPrompt(input llm.AnalyzeInput) string {
	scale := input.Scale
	if scale == "" {
		scale = llm.ScaleTen
	}
	return fmt.Sprintf(`Below is a reader's raw reaction to a manuscript excerpt, followed by the
excerpt itself and the reader's profile. Convert the reaction into structured
business insight for the author and publisher.

READER PROFILE
%s
RAW REACTION
%s

MANUSCRIPT EXCERPT (segment %d)
%s

Return JSON with exactly these keys:
{
  "ratings": {"engagement": n, "style": n, "clarity": n, "pacing": n, "relevance": n},
  "overallRating": n,
  "feedback": "key takeaways for the author, at most %d words",
  "buyingProbability": p,
  "recommendationLikelihood": p,
  "expectedReviewSentiment": "positive" | "neutral" | "negative",
  "marketingInsights": ["2-3 positioning or audience observations"]
}
All ratings n are numbers on a %s scale. Both probabilities p are numbers between 0 and 1.`,
		personaBlock(input.Persona), input.PriorReaction, input.ChunkIndex, input.ChunkText, feedbackWordBudget, scale)
}
