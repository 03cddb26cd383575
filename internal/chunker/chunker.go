// Package chunker splits manuscript text into bounded-size, structure-aware
// segments that serve as the unit of analysis for reader simulation.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
)

// ChunkType describes which splitting strategy produced a chunk.
type ChunkType string

const (
	TypeChapter   ChunkType = "chapter"
	TypeSection   ChunkType = "section"
	TypeParagraph ChunkType = "paragraph"
	TypeAutomatic ChunkType = "automatic"
)

// Chunk is one contiguous slice of the manuscript. Index reflects document
// order and is dense starting at 0.
type Chunk struct {
	Index     int       `json:"index"`
	Type      ChunkType `json:"chunkType"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	WordCount int       `json:"wordCount"`
}

// Options tunes chunk sizing and structure detection.
type Options struct {
	MaxWordsPerChunk  int
	MinWordsPerChunk  int
	PreserveStructure bool
}

const (
	DefaultMaxWordsPerChunk = 1000
	DefaultMinWordsPerChunk = 150

	// Paragraphs shorter than this (in characters) are treated as noise
	// (scene separators, page numbers) and skipped by the semantic pass.
	minParagraphChars = 20

	// Structural splitting only engages when the manuscript shows at least
	// this many heading boundaries.
	minStructuralBoundaries = 3
)

func (o Options) withDefaults() Options {
	if o.MaxWordsPerChunk <= 0 {
		o.MaxWordsPerChunk = DefaultMaxWordsPerChunk
	}
	if o.MinWordsPerChunk <= 0 {
		o.MinWordsPerChunk = DefaultMinWordsPerChunk
	}
	if o.MinWordsPerChunk > o.MaxWordsPerChunk {
		o.MinWordsPerChunk = o.MaxWordsPerChunk
	}
	return o
}

var headingPatterns = []*regexp.Regexp{
	// "Chapter 12", "CHAPTER XII", "Chapter 3: The Storm"
	regexp.MustCompile(`(?mi)^[ \t]*chapter[ \t]+(?:\d+|[ivxlcdm]+)\b[^\n]*$`),
	// "Part One", "PART II"
	regexp.MustCompile(`(?mi)^[ \t]*part[ \t]+(?:\d+|[ivxlcdm]+|one|two|three|four|five|six|seven|eight|nine|ten)\b[^\n]*$`),
	// Bare roman-numeral headings on their own line: "IV." / "XII"
	regexp.MustCompile(`(?m)^[ \t]*[IVXLCDM]{1,7}\.?[ \t]*$`),
	// Numbered headings: "12." / "3. The Crossing"
	regexp.MustCompile(`(?m)^[ \t]*\d{1,3}\.[ \t]*[^\n]*$`),
}

// CreateChunks splits text into ordered chunks. When PreserveStructure is set
// and the text carries enough heading boundaries, chapters become chunks and
// fragments below the minimum are discarded. Otherwise paragraphs are greedily
// packed up to the word ceiling. Non-empty input always yields at least one
// chunk: the semantic pass flushes its final buffer even when undersized.
func CreateChunks(text string, opts Options) []Chunk {
	opts = opts.withDefaults()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []Chunk
	if opts.PreserveStructure {
		chunks = structuralChunks(text, opts)
	}
	if len(chunks) < 2 {
		chunks = semanticChunks(text, opts)
	}
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

func structuralChunks(text string, opts Options) []Chunk {
	boundaries := headingBoundaries(text)
	if len(boundaries) < minStructuralBoundaries {
		return nil
	}

	var chunks []Chunk
	for i, b := range boundaries {
		end := len(text)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].start
		}
		content := strings.TrimSpace(text[b.start:end])
		words := len(strings.Fields(content))
		if words < opts.MinWordsPerChunk {
			continue
		}
		chunks = append(chunks, Chunk{
			Type:      TypeChapter,
			Title:     strings.TrimSpace(b.heading),
			Content:   content,
			WordCount: words,
		})
	}
	return chunks
}

type boundary struct {
	start   int
	heading string
}

func headingBoundaries(text string) []boundary {
	seen := make(map[int]bool)
	var out []boundary
	for _, re := range headingPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if seen[loc[0]] {
				continue
			}
			seen[loc[0]] = true
			out = append(out, boundary{start: loc[0], heading: text[loc[0]:loc[1]]})
		}
	}
	// Document order regardless of which pattern matched.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].start > out[j].start; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

var paragraphSplit = regexp.MustCompile(`\n[ \t]*\n+`)

func semanticChunks(text string, opts Options) []Chunk {
	var chunks []Chunk
	var buf []string
	bufWords := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		content := strings.Join(buf, "\n\n")
		chunks = append(chunks, Chunk{
			Type:      TypeParagraph,
			Content:   content,
			WordCount: bufWords,
		})
		buf = buf[:0]
		bufWords = 0
	}

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if len(para) < minParagraphChars {
			continue
		}
		words := len(strings.Fields(para))
		if bufWords > 0 && bufWords+words > opts.MaxWordsPerChunk && bufWords >= opts.MinWordsPerChunk {
			flush()
		}
		buf = append(buf, para)
		bufWords += words
	}
	// The trailing buffer is kept even when undersized so the manuscript tail
	// is never lost and non-empty input yields at least one chunk.
	flush()

	if len(chunks) == 0 {
		content := strings.TrimSpace(text)
		chunks = append(chunks, Chunk{
			Type:      TypeAutomatic,
			Content:   content,
			WordCount: len(strings.Fields(content)),
		})
	}
	return chunks
}

// Summary renders a human-readable digest of a chunk list for progress
// displays. Purely derived, no side effects.
func Summary(chunks []Chunk) string {
	if len(chunks) == 0 {
		return "no chunks"
	}
	total := 0
	for _, c := range chunks {
		total += c.WordCount
	}
	strategy := "semantic"
	if chunks[0].Type == TypeChapter || chunks[0].Type == TypeSection {
		strategy = "structural"
	}
	return fmt.Sprintf("%d chunks, %d words avg (%s split)", len(chunks), total/len(chunks), strategy)
}
