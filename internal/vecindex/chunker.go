package vecindex

import "strings"

// Chunking bounds, in bytes of UTF-8 text. Chunks are cut on paragraph
// boundaries where possible, falling back to sentence and then word
// boundaries for oversized paragraphs.
const (
	maxChunkSize = 1200
	chunkOverlap = 200
)

// splitText breaks text into embeddable chunks. Whitespace-only input
// yields no chunks.
func splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChunkSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		for _, piece := range splitOversized(para) {
			if current.Len() > 0 && current.Len()+len(piece)+1 > maxChunkSize {
				tail := overlapTail(current.String())
				flush()
				current.WriteString(tail)
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(piece)
		}
	}
	flush()
	return chunks
}

// splitOversized cuts a single paragraph that exceeds maxChunkSize into
// sentence-boundary pieces, then word-boundary pieces as a last resort.
func splitOversized(para string) []string {
	if len(para) <= maxChunkSize {
		return []string{para}
	}

	var pieces []string
	var current strings.Builder
	for _, sentence := range splitSentences(para) {
		if len(sentence) > maxChunkSize {
			// Pathological sentence; cut on words.
			for _, word := range strings.Fields(sentence) {
				if current.Len()+len(word)+1 > maxChunkSize {
					pieces = append(pieces, current.String())
					current.Reset()
				}
				if current.Len() > 0 {
					current.WriteString(" ")
				}
				current.WriteString(word)
			}
			continue
		}
		if current.Len()+len(sentence)+1 > maxChunkSize {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}

// splitSentences splits on terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				sentences = append(sentences, strings.TrimSpace(text[start:i+1]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// overlapTail returns the last chunkOverlap bytes of s, aligned to a
// word boundary, to carry context across adjacent chunks.
func overlapTail(s string) string {
	if len(s) <= chunkOverlap {
		return s
	}
	tail := s[len(s)-chunkOverlap:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 {
		tail = tail[idx+1:]
	}
	return tail
}
