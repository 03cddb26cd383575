package manuscripts

import (
	"strings"
	"time"
)

// Manuscript is an uploaded text under analysis.
type Manuscript struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	WordCount int       `json:"wordCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is the listing view without the full text.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	WordCount int       `json:"wordCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summarize strips the text body for listings.
func (m Manuscript) Summarize() Summary {
	return Summary{ID: m.ID, Title: m.Title, WordCount: m.WordCount, CreatedAt: m.CreatedAt}
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
