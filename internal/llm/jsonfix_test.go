package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			in:   `{"a":1}`,
			want: `{"a":1}`,
			ok:   true,
		},
		{
			name: "code fence with prose",
			in:   "Sure! Here's the JSON:\n```json\n{\"ratings\":{\"engagement\":8}}\n```",
			want: `{"ratings":{"engagement":8}}`,
			ok:   true,
		},
		{
			name: "trailing prose after object",
			in:   `{"a":1} hope that helps!`,
			want: `{"a":1}`,
			ok:   true,
		},
		{
			name: "array payload",
			in:   `the list: ["x","y"]`,
			want: `["x","y"]`,
			ok:   true,
		},
		{
			name: "braces inside strings",
			in:   `{"a":"v{a}l\"ue","b":2}`,
			want: `{"a":"v{a}l\"ue","b":2}`,
			ok:   true,
		},
		{
			name: "unbalanced",
			in:   `{"a": {"b": 1}`,
			ok:   false,
		},
		{
			name: "no json at all",
			in:   "I cannot rate this chapter.",
			ok:   false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.in)
			if ok != tt.ok {
				t.Fatalf("ExtractJSON ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("ExtractJSON = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "bare keys", in: `{ratings: {engagement: 8, style: 7}, feedback: "fine"}`},
		{name: "trailing comma", in: `{"a": 1, "b": [1,2,],}`},
		{name: "smart quotes", in: `{“feedback”: “a vivid opener”}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repaired := RepairJSON(tt.in)
			if !json.Valid([]byte(repaired)) {
				t.Fatalf("repaired output still invalid: %s", repaired)
			}
		})
	}
}

func TestRepairJSONLeavesValidInputAlone(t *testing.T) {
	in := `{"feedback":"keys: like {this} stay intact","n":1}`
	if got := RepairJSON(in); got != in {
		t.Fatalf("valid JSON mutated by repair: %s", got)
	}
}
