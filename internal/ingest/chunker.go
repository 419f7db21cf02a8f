package ingest

import (
	"strings"
	"unicode"
)

// SplitSentences breaks text into sentences on terminal punctuation followed
// by whitespace. Whitespace runs inside sentences are collapsed to single
// spaces. Go's regexp has no lookbehind, so this walks the text directly.
func SplitSentences(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	var sentences []string
	var current []string
	for _, word := range fields {
		current = append(current, word)
		if endsSentence(word) {
			sentences = append(sentences, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, strings.Join(current, " "))
	}
	return sentences
}

// endsSentence reports whether a word terminates a sentence: it must end in
// ./!/? possibly followed by closing quotes or brackets.
func endsSentence(word string) bool {
	trimmed := strings.TrimRightFunc(word, func(r rune) bool {
		return r == '"' || r == '\'' || r == ')' || r == ']' || unicode.Is(unicode.Pf, r)
	})
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?")
}

// ChunkText splits text into sentence-aligned chunks of at most size
// characters, with roughly overlap characters of trailing sentences repeated
// at the start of the next chunk. A single sentence longer than size becomes
// its own chunk rather than being split mid-sentence.
func ChunkText(text string, size, overlap int) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		length := 0
		j := i
		for j < len(sentences) {
			add := len(sentences[j])
			if j > i {
				add++ // joining space
			}
			if length+add > size && j > i {
				break
			}
			length += add
			j++
		}

		chunks = append(chunks, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		// Back up whole sentences until the overlap budget is spent.
		next := j
		budget := overlap
		for next > i+1 && budget >= len(sentences[next-1]) {
			budget -= len(sentences[next-1]) + 1
			next--
		}
		i = next
	}

	return chunks
}
