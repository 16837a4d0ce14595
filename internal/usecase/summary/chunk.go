// Package summary collapses a document of any length into one summary by
// summarizing chunks and merging them pairwise until a single chunk remains.
package summary

import (
	"math"
	"strings"
)

// DefaultChunkSize is the chunk length in characters.
const DefaultChunkSize = 2500

// TextChunk is a positioned slice of a document.
type TextChunk struct {
	Position int
	Text     string
}

// Chunk splits text into consecutive pieces of at most maxSize runes.
// Concatenating the chunks in position order reproduces text exactly.
// maxSize below 1 is treated as 1; empty text yields no chunks.
func Chunk(text string, maxSize int) []TextChunk {
	if text == "" {
		return nil
	}
	if maxSize < 1 {
		maxSize = 1
	}

	runes := []rune(text)
	chunks := make([]TextChunk, 0, (len(runes)+maxSize-1)/maxSize)
	for start := 0; start < len(runes); start += maxSize {
		end := min(start+maxSize, len(runes))
		chunks = append(chunks, TextChunk{Position: len(chunks), Text: string(runes[start:end])})
	}
	return chunks
}

// Merge concatenates adjacent pairs. With an odd count the trailing chunk is
// folded into the last pair, so nothing is dropped. A single chunk is
// returned as is.
func Merge(chunks []TextChunk) []TextChunk {
	if len(chunks) <= 1 {
		return chunks
	}

	merged := make([]TextChunk, 0, len(chunks)/2)
	for i := 0; i+1 < len(chunks); i += 2 {
		var b strings.Builder
		b.WriteString(chunks[i].Text)
		b.WriteString(chunks[i+1].Text)
		if i+3 == len(chunks) {
			b.WriteString(chunks[i+2].Text)
		}
		merged = append(merged, TextChunk{Position: len(merged), Text: b.String()})
	}
	return merged
}

// EstimateLevels returns max(1, ceil(log2 n)), the planned number of merge rounds.
func EstimateLevels(n int) int {
	if n <= 1 {
		return 1
	}
	return max(1, int(math.Ceil(math.Log2(float64(n)))))
}
