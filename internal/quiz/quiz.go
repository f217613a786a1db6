// Package quiz turns a summary into cloze-style multiple-choice questions.
package quiz

import (
	"math/rand/v2"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"

	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/models"
)

const (
	// Blank replaces the answer in the question text.
	Blank = "_____"

	minSentenceWords = 5
	minKeywordRunes  = 4
	numDistractors   = 3
)

// ProgressFunc receives (stage, step, total) updates.
type ProgressFunc func(stage string, step, total int)

// Generator builds questions. It is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	tagger   Tagger
	progress ProgressFunc
	log      logger.Logger
}

type Option func(*Generator)

// WithRand fixes the random source, e.g. rand.New(rand.NewPCG(1, 2)) in tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

func WithTagger(t Tagger) Option {
	return func(g *Generator) { g.tagger = t }
}

func WithProgress(fn ProgressFunc) Option {
	return func(g *Generator) { g.progress = fn }
}

func NewGenerator(log logger.Logger, opts ...Option) *Generator {
	g := &Generator{
		tagger: HeuristicTagger{},
		log:    log,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// Generate returns at most numQuestions questions drawn from summary. It
// returns an empty slice when the text has too little material.
func (g *Generator) Generate(summary string, numQuestions int) []models.Question {
	questions := []models.Question{}
	if numQuestions <= 0 || strings.TrimSpace(summary) == "" {
		return questions
	}

	sents := eligibleSentences(summary)
	if len(sents) == 0 {
		g.log.Debug("No sentence with at least %d words; no questions generated", minSentenceWords)
		return questions
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	perSentence := make([][]string, len(sents))
	var all []string
	for i, s := range sents {
		perSentence[i] = g.keywords(s)
		all = append(all, perSentence[i]...)
	}
	pool := dedupeFold(all)

	seen := make(map[string]struct{})
	maxTries := max(10, numQuestions*4)
	for tries := 1; len(questions) < numQuestions && tries <= maxTries; tries++ {
		g.report("Generating questions (attempts)", tries, maxTries)

		idx := g.rng.IntN(len(sents))
		sent := sents[idx]
		candidates := dedupeFold(perSentence[idx])
		if len(candidates) == 0 {
			continue
		}
		answer := candidates[g.rng.IntN(len(candidates))]

		distractors := distractorPool(answer, pool)
		if len(distractors) < numDistractors {
			continue
		}

		options := append([]string{answer}, g.sample(distractors, numDistractors)...)
		g.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

		text := cloze(sent, answer)
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		questions = append(questions, models.Question{Question: text, Answer: answer, Options: options})
		if len(questions) < numQuestions {
			g.report("Questions generated", len(questions), numQuestions)
		}
	}

	g.log.Debug("Generated %d of %d requested questions", len(questions), numQuestions)
	return questions
}

func (g *Generator) report(stage string, step, total int) {
	if g.progress != nil {
		g.progress(stage, step, total)
	}
}

// keywords returns the content words of a sentence in order.
func (g *Generator) keywords(sentence string) []string {
	tokens := Tokenize(sentence)
	tags := g.tagger.Tag(tokens)
	var out []string
	for i, tok := range tokens {
		if i >= len(tags) || !tags[i].IsContent() {
			continue
		}
		if !isAlpha(tok) || utf8.RuneCountInString(tok) < minKeywordRunes {
			continue
		}
		if _, stop := stopwords[strings.ToLower(tok)]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// distractorPool is the deduplicated keyword pool without the answer.
func distractorPool(answer string, pool []string) []string {
	out := make([]string, 0, len(pool))
	for _, w := range pool {
		if !strings.EqualFold(w, answer) {
			out = append(out, w)
		}
	}
	return out
}

// sample picks n distinct entries with a partial Fisher-Yates shuffle.
func (g *Generator) sample(from []string, n int) []string {
	cp := append([]string(nil), from...)
	for i := 0; i < n; i++ {
		j := i + g.rng.IntN(len(cp)-i)
		cp[i], cp[j] = cp[j], cp[i]
	}
	return cp[:n]
}

func cloze(sentence, answer string) string {
	if strings.Contains(sentence, answer) {
		return strings.Replace(sentence, answer, Blank, 1)
	}
	return sentence + "\n\nFill in the blank: " + Blank
}

func eligibleSentences(text string) []string {
	var out []string
	it := sentences.FromString(text)
	for it.Next() {
		s := strings.TrimSpace(it.Value())
		if len(strings.Fields(s)) >= minSentenceWords {
			out = append(out, s)
		}
	}
	return out
}

// dedupeFold removes case-insensitive duplicates, keeping first occurrences.
func dedupeFold(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, w := range in {
		k := strings.ToLower(w)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, w)
	}
	return out
}
