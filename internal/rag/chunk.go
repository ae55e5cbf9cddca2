package rag

import (
	"regexp"
	"strings"
)

const DefaultChunkBytes = 500

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// SplitSentences cuts text after '.', '!' or '?' when followed by whitespace.
// The punctuation stays with its sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[start : loc[0]+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// Chunk greedily packs sentences into space-joined chunks whose byte length
// stays below maxBytes. A sentence that alone exceeds maxBytes becomes its own
// chunk.
func Chunk(text string, maxBytes int) []string {
	if maxBytes <= 0 {
		maxBytes = DefaultChunkBytes
	}

	var (
		chunks []string
		cur    strings.Builder
	)
	for _, s := range SplitSentences(text) {
		if cur.Len() == 0 {
			cur.WriteString(s)
			continue
		}
		if cur.Len()+1+len(s) < maxBytes {
			cur.WriteByte(' ')
			cur.WriteString(s)
			continue
		}
		chunks = append(chunks, cur.String())
		cur.Reset()
		cur.WriteString(s)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
