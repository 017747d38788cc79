// Package chunk splits cleaned article text into paragraph-aligned,
// word-capped chunks sized for an embedding model's input window.
package chunk

import (
	"strings"
)

// DefaultMaxWords is roughly 75% of a 512 token window.
const DefaultMaxWords = 350

// Options controls chunk sizing.
type Options struct {
	// MaxWords is the soft cap on words per chunk. A single paragraph longer
	// than MaxWords is emitted whole as its own chunk.
	MaxWords int
}

// DefaultOptions returns Options with the default word cap.
func DefaultOptions() Options {
	return Options{MaxWords: DefaultMaxWords}
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Split packs consecutive newline-separated paragraphs of text into chunks
// whose word count stays at or below opts.MaxWords. Paragraphs are never
// split, so an oversized paragraph becomes a chunk of its own. Returned
// chunks are trimmed and never empty.
func Split(text string, opts Options) []string {
	maxWords := opts.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	var chunks []string
	var current strings.Builder
	currentWords := 0

	closeChunk := func() {
		if c := strings.TrimSpace(current.String()); c != "" {
			chunks = append(chunks, c)
		}
		current.Reset()
		currentWords = 0
	}

	for _, para := range strings.Split(text, "\n") {
		paraWords := WordCount(para)

		if currentWords+paraWords > maxWords {
			closeChunk()
			current.WriteString(para)
			currentWords = paraWords
			continue
		}

		current.WriteByte('\n')
		current.WriteString(para)
		currentWords += paraWords
	}

	closeChunk()

	return chunks
}
