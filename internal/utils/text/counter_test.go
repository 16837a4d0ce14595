package text_test

import (
	"testing"

	"paper-digest/internal/utils/text"
)

func TestCountRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "ASCII text", input: "hello", expected: 5},
		{name: "ASCII with spaces", input: "hello world", expected: 11},
		{name: "Japanese kanji", input: "日本語", expected: 3},
		{name: "Mixed", input: "hello世界", expected: 7},
		{name: "Emoji", input: "Hello👋", expected: 6},
		{name: "Empty", input: "", expected: 0},
		{name: "Zero-width space", input: "hello​world", expected: 11},
		{name: "Cyrillic characters", input: "Привет", expected: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := text.CountRunes(tt.input); got != tt.expected {
				t.Errorf("CountRunes(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		limit  int
		suffix string
		want   string
	}{
		{name: "fits", input: "short", limit: 10, suffix: "…", want: "short"},
		{name: "exact", input: "exact", limit: 5, suffix: "…", want: "exact"},
		{name: "cut with suffix", input: "abcdefghij", limit: 5, suffix: "…", want: "abcd…"},
		{name: "multibyte", input: "日本語のテキスト", limit: 4, suffix: "…", want: "日本語…"},
		{name: "suffix longer than limit", input: "abcdef", limit: 2, suffix: "...", want: "ab"},
		{name: "zero limit", input: "abc", limit: 0, suffix: "…", want: ""},
		{name: "no suffix", input: "abcdef", limit: 3, suffix: "", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := text.Truncate(tt.input, tt.limit, tt.suffix)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
			if text.CountRunes(got) > tt.limit && tt.limit > 0 {
				t.Errorf("result exceeds limit: %d runes", text.CountRunes(got))
			}
		})
	}
}
