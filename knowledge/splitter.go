package knowledge

import "strings"

// Splitter chunks text into overlapping windows sized in runes. Splits
// prefer paragraph then sentence boundaries near the window end.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter returns a splitter with the given window and overlap sizes.
// Non-positive values fall back to defaults (1500 / 100).
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 100
		if overlap >= chunkSize {
			overlap = chunkSize / 10
		}
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

// Split chunks text. Whitespace-only input yields no chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.ChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := s.findBreak(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - s.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// findBreak looks backwards from end for a paragraph break, then a
// sentence end, then a space, and falls back to a hard cut.
func (s *Splitter) findBreak(runes []rune, start, end int) int {
	limit := start + s.ChunkSize/2

	for i := end; i > limit; i-- {
		if runes[i-1] == '\n' && i < len(runes) && runes[i] == '\n' {
			return i
		}
	}
	for i := end; i > limit; i-- {
		switch runes[i-1] {
		case '.', '!', '?', '\n':
			return i
		}
	}
	for i := end; i > limit; i-- {
		if runes[i-1] == ' ' {
			return i
		}
	}
	return end
}
