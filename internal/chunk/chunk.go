// Package chunk partitions long text into model-sized pieces.
//
// All sizes and offsets are counted in runes, so a cut never lands inside a
// multi-byte character. Every splitter here is lossless: Join of its output
// reproduces the input exactly.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Default sizes, in runes.
const (
	// DefaultThreshold is the formatting chunk size.
	DefaultThreshold = 12000

	// DefaultLineTarget is the translation chunk size.
	DefaultLineTarget = 10000

	// Lookahead is how far FindBoundary scans past the target offset.
	Lookahead = 500
)

// Chunk is a contiguous piece of a parent text.
type Chunk struct {
	Index   int    // 0-based position
	Total   int    // number of chunks in the split
	Content string // the chunk text, never empty for non-empty input
}

// Part returns the 1-based position, for "part i of n" markers.
func (c Chunk) Part() int {
	return c.Index + 1
}

// isTerminal reports whether r ends a sentence or a line.
func isTerminal(r rune) bool {
	return r == '。' || r == '.' || r == '\n'
}

// FindBoundary returns the offset just after the first sentence terminator
// (full-width period, ASCII period or newline) found at or after target,
// scanning at most Lookahead runes. It returns target unchanged when no
// terminator is found in the window. The result is never less than target.
// target is clamped to [0, len(text)].
func FindBoundary(text []rune, target int) int {
	target = max(0, min(target, len(text)))
	end := min(target+Lookahead, len(text))
	for i := target; i < end; i++ {
		if isTerminal(text[i]) {
			return i + 1
		}
	}
	return target
}

// Split divides text into roughly even chunks of at most about threshold
// runes, cutting on sentence boundaries when one is close enough.
//
// Text that fits in threshold is returned as a single chunk. Otherwise the
// number of chunks is ceil(n/threshold), each non-final cut is moved forward
// to the next boundary, and the last chunk always ends at the end of text.
// A non-positive threshold uses DefaultThreshold.
func Split(text string, threshold int) []Chunk {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	runes := []rune(text)
	n := len(runes)
	if n <= threshold {
		return []Chunk{{Index: 0, Total: 1, Content: text}}
	}

	numChunks := ceilDiv(n, threshold)
	chunkSize := ceilDiv(n, numChunks)

	parts := make([]string, 0, numChunks)
	pos := 0
	for i := 0; i < numChunks && pos < n; i++ {
		end := n
		if i < numChunks-1 {
			end = FindBoundary(runes, min(pos+chunkSize, n))
		}
		parts = append(parts, string(runes[pos:end]))
		pos = end
	}

	return number(parts)
}

// SplitLines divides text into chunks made of whole lines. Lines are
// accumulated until adding the next one would exceed target runes, then a
// new chunk starts. A line longer than target becomes its own chunk; a line
// is never cut. Each line keeps its trailing newline.
// A non-positive target uses DefaultLineTarget.
func SplitLines(text string, target int) []Chunk {
	if target <= 0 {
		target = DefaultLineTarget
	}
	if runeLen(text) <= target {
		return []Chunk{{Index: 0, Total: 1, Content: text}}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		lineLen := runeLen(line)
		if currentLen > 0 && currentLen+lineLen > target {
			parts = append(parts, current.String())
			current.Reset()
			currentLen = 0
		}
		current.WriteString(line)
		currentLen += lineLen
	}
	if currentLen > 0 {
		parts = append(parts, current.String())
	}

	return number(parts)
}

// Join concatenates chunk contents in index order.
func Join(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Content)
	}
	return b.String()
}

func number(parts []string) []Chunk {
	chunks := make([]Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = Chunk{Index: i, Total: len(parts), Content: p}
	}
	return chunks
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
