// Package text provides rune-aware helpers shared by the chunker and the
// delivery channels, which all measure length in characters rather than bytes.
package text

import "unicode/utf8"

// CountRunes counts the number of Unicode characters (runes) in the given text.
//
//	CountRunes("hello")    // 5
//	CountRunes("日本語")    // 3
//	CountRunes("")         // 0
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// Truncate shortens text to at most limit runes. When text is cut, the last
// runes are replaced by suffix so the result still fits in limit.
// A limit below the suffix length truncates without a suffix.
func Truncate(text string, limit int, suffix string) string {
	if limit <= 0 {
		return ""
	}
	if CountRunes(text) <= limit {
		return text
	}

	keep := limit - CountRunes(suffix)
	if keep <= 0 {
		return string([]rune(text)[:limit])
	}
	return string([]rune(text)[:keep]) + suffix
}
