// Package operations ties extraction, summarization, quiz generation and
// session history together for the command line, MCP and HTTP front ends.
package operations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Epistemic-Technology/studysage/internal/documents"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/storage"
	"github.com/Epistemic-Technology/studysage/internal/summarize"
	"github.com/Epistemic-Technology/studysage/models"
)

// ErrNoTextExtracted is returned by Process when the document yields no text.
var ErrNoTextExtracted = errors.New("no text could be extracted from the document")

// TextExtractor reads the text of a local file.
type TextExtractor interface {
	Extract(ctx context.Context, path string, lang string, forceOCR bool) (string, error)
}

// Summarizer produces summaries under an explicit mode.
type Summarizer interface {
	SummarizeDetailed(ctx context.Context, text string, minLength, maxLength int, cfg models.ModeConfig) (*summarize.Result, error)
}

// QuestionGenerator builds cloze questions from a summary.
type QuestionGenerator interface {
	Generate(summary string, numQuestions int) []models.Question
}

// Fetcher downloads a remote source into a local temp file.
type Fetcher interface {
	Fetch(ctx context.Context, source models.SourceInfo) (string, func(), error)
}

// Pipeline is the set of core operations every front end calls.
type Pipeline struct {
	extractor  TextExtractor
	summarizer Summarizer
	questions  QuestionGenerator
	fetcher    Fetcher
	store      storage.Store
	log        logger.Logger
}

type PipelineOption func(*Pipeline)

// WithStore makes Process record every finished session.
func WithStore(s storage.Store) PipelineOption {
	return func(p *Pipeline) { p.store = s }
}

// WithFetcher enables URL and Zotero sources.
func WithFetcher(f Fetcher) PipelineOption {
	return func(p *Pipeline) { p.fetcher = f }
}

func NewPipeline(extractor TextExtractor, summarizer Summarizer, questions QuestionGenerator, log logger.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		summarizer: summarizer,
		questions:  questions,
		log:        log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the session store, or nil when history is disabled.
func (p *Pipeline) Store() storage.Store { return p.store }

// ExtractTextFromFile returns the text of a local .txt, .md, .pdf or image file.
func (p *Pipeline) ExtractTextFromFile(ctx context.Context, path string, lang string, forceOCR bool) (string, error) {
	return p.extractor.Extract(ctx, path, lang, forceOCR)
}

// ExtractTextFromSource resolves a local path, URL or Zotero attachment and
// extracts its text.
func (p *Pipeline) ExtractTextFromSource(ctx context.Context, source models.SourceInfo, lang string, forceOCR bool) (string, error) {
	if source.Path != "" {
		return p.ExtractTextFromFile(ctx, source.Path, lang, forceOCR)
	}
	if p.fetcher == nil {
		return "", errors.New("remote sources are not enabled")
	}
	path, cleanup, err := p.fetcher.Fetch(ctx, source)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document: %w", err)
	}
	defer cleanup()
	return p.ExtractTextFromFile(ctx, path, lang, forceOCR)
}

// SummarizeText summarizes text under cfg.
func (p *Pipeline) SummarizeText(ctx context.Context, text string, minLength, maxLength int, cfg models.ModeConfig) (string, error) {
	res, err := p.summarizer.SummarizeDetailed(ctx, text, minLength, maxLength, cfg)
	if err != nil {
		return "", err
	}
	return res.Summary, nil
}

// SummarizeTextDetailed is SummarizeText plus the effective mode and chunk count.
func (p *Pipeline) SummarizeTextDetailed(ctx context.Context, text string, minLength, maxLength int, cfg models.ModeConfig) (*summarize.Result, error) {
	return p.summarizer.SummarizeDetailed(ctx, text, minLength, maxLength, cfg)
}

// GenerateQuestions returns up to numQuestions cloze questions.
func (p *Pipeline) GenerateQuestions(summary string, numQuestions int) []models.Question {
	return p.questions.Generate(summary, numQuestions)
}

// ProcessRequest describes one end-to-end run.
type ProcessRequest struct {
	Source       models.SourceInfo
	Language     string
	ForceOCR     bool
	Mode         models.ModeConfig
	MinLength    int
	MaxLength    int
	NumQuestions int // 0 skips the quiz
	// DisplayPath is recorded instead of Source.Path, e.g. the original
	// name of an uploaded file spooled to a temp path.
	DisplayPath string
}

// Process extracts, summarizes and optionally quizzes one document. When a
// store is configured the session is saved and carries its ID.
func (p *Pipeline) Process(ctx context.Context, req ProcessRequest) (*models.StudySession, error) {
	text, err := p.ExtractTextFromSource(ctx, req.Source, req.Language, req.ForceOCR)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoTextExtracted
	}
	p.log.Info("Extracted %d characters from %s", utf8.RuneCountInString(text), req.Source.Label())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := p.summarizer.SummarizeDetailed(ctx, text, req.MinLength, req.MaxLength, req.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}

	source := req.Source
	if req.DisplayPath != "" {
		source.Path = req.DisplayPath
	}
	session := &models.StudySession{
		Source:     source,
		Mode:       res.Mode,
		Downgraded: res.Downgraded,
		TextChars:  utf8.RuneCountInString(text),
		Summary:    res.Summary,
		CreatedAt:  time.Now().UTC(),
	}
	if req.NumQuestions > 0 {
		session.Questions = p.questions.Generate(res.Summary, req.NumQuestions)
		p.log.Info("Generated %d of %d requested questions", len(session.Questions), req.NumQuestions)
	}

	if p.store != nil {
		if _, err := p.store.SaveSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
	}

	return session, nil
}

var _ Fetcher = (*documents.Fetcher)(nil)
