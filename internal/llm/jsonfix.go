package llm

import (
	"regexp"
	"strings"
)

// ExtractJSON returns the first top-level balanced JSON object or array
// embedded in s, tolerating surrounding prose and markdown code fences.
// The boolean is false when no balanced payload exists.
func ExtractJSON(s string) (string, bool) {
	start := -1
	for i, r := range s {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

var (
	bareKeyPattern    = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_-]*)(\s*:)`)
	trailingSeparator = regexp.MustCompile(`,(\s*[}\]])`)
	smartQuotes       = strings.NewReplacer(
		"“", `"`, // left double
		"”", `"`, // right double
		"‘", "'", // left single
		"’", "'", // right single
	)
)

// RepairJSON applies a best-effort cleanup pass to almost-JSON model output:
// smart quotes normalized, bare object keys quoted, trailing separators
// stripped. It does not guarantee validity; callers must re-validate.
func RepairJSON(s string) string {
	s = smartQuotes.Replace(s)
	s = bareKeyPattern.ReplaceAllString(s, `$1"$2"$3`)
	s = trailingSeparator.ReplaceAllString(s, "$1")
	return s
}
