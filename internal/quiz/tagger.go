package quiz

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
)

// Tag is a coarse part-of-speech label.
type Tag string

const (
	TagNoun      Tag = "NN"
	TagVerb      Tag = "VB"
	TagAdjective Tag = "JJ"
	TagOther     Tag = "O"
)

// IsContent reports whether the tag marks a noun, verb or adjective.
func (t Tag) IsContent() bool {
	return strings.HasPrefix(string(t), "NN") ||
		strings.HasPrefix(string(t), "VB") ||
		strings.HasPrefix(string(t), "JJ")
}

// Tagger assigns one tag per token.
type Tagger interface {
	Tag(tokens []string) []Tag
}

// HeuristicTagger treats capitalized words and words of five or more
// letters as nouns and everything else as other.
type HeuristicTagger struct{}

func (HeuristicTagger) Tag(tokens []string) []Tag {
	tags := make([]Tag, len(tokens))
	for i, tok := range tokens {
		r, _ := utf8.DecodeRuneInString(tok)
		if unicode.IsUpper(r) || utf8.RuneCountInString(tok) >= 5 {
			tags[i] = TagNoun
		} else {
			tags[i] = TagOther
		}
	}
	return tags
}

// Tokenize returns the word tokens of s, dropping whitespace and punctuation
// segments.
func Tokenize(s string) []string {
	var tokens []string
	it := words.FromString(s)
	for it.Next() {
		tok := it.Value()
		if strings.TrimSpace(tok) == "" {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(tok); unicode.IsPunct(r) || unicode.IsSymbol(r) {
			if utf8.RuneCountInString(tok) == 1 {
				continue
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
