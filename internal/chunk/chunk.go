// Package chunk splits text into sentence-aligned segments bounded by word count.
package chunk

import (
	"regexp"
	"strings"
)

// A sentence ends at terminal punctuation followed by whitespace.
var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// Sentences splits trimmed text after every '.', '!' or '?' that is followed
// by whitespace. The punctuation stays with its sentence.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		// loc[0] is the punctuation mark; whitespace follows it.
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// Split packs sentences greedily into chunks of at most maxWords words. A
// sentence longer than maxWords becomes its own chunk. When no chunk can be
// formed the trimmed text is returned as the only chunk.
func Split(text string, maxWords int) []string {
	var (
		chunks   []string
		cur      []string
		curWords int
	)
	for _, s := range Sentences(text) {
		w := len(strings.Fields(s))
		if len(cur) > 0 && curWords+w > maxWords {
			chunks = append(chunks, strings.Join(cur, " "))
			cur, curWords = nil, 0
		}
		cur = append(cur, s)
		curWords += w
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	if len(chunks) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return chunks
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
