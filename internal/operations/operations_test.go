package operations

import (
	"context"
	"errors"
	"image"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/studysage/internal/extract"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/ocr"
	"github.com/Epistemic-Technology/studysage/internal/quiz"
	"github.com/Epistemic-Technology/studysage/internal/storage"
	"github.com/Epistemic-Technology/studysage/internal/summarize"
	"github.com/Epistemic-Technology/studysage/models"
)

// echoBackend returns its input so the summary equals the source text.
type echoBackend struct{ calls int }

func (b *echoBackend) Summarize(ctx context.Context, chunk string, minLength, maxLength int) (string, error) {
	b.calls++
	return chunk, nil
}

// silentEngine is an OCR engine that never finds text.
type silentEngine struct{}

func (silentEngine) Recognize(ctx context.Context, png []byte, lang string, layout ocr.Layout) (string, error) {
	return "", nil
}

type fakeFetcher struct {
	path    string
	cleaned bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, source models.SourceInfo) (string, func(), error) {
	if source.URL == "" {
		return "", nil, errors.New("no url")
	}
	return f.path, func() { f.cleaned = true }, nil
}

const parisText = "Paris is the capital of France. The Eiffel Tower is a famous landmark in Paris."

func newTestPipeline(t *testing.T, opts ...PipelineOption) (*Pipeline, *echoBackend) {
	t.Helper()
	log := logger.NewNoOpLogger()
	backend := &echoBackend{}
	reader := ocr.NewReader(silentEngine{}, log)
	extractor := extract.New(reader, log)
	summarizer := summarize.NewService(backend, func(string) summarize.Backend { return backend }, log)
	generator := quiz.NewGenerator(log, quiz.WithRand(rand.New(rand.NewPCG(1, 2))))
	return NewPipeline(extractor, summarizer, generator, log, opts...), backend
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractSummarizeQuiz(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	path := writeFile(t, "notes.txt", parisText)
	text, err := p.ExtractTextFromFile(ctx, path, "eng", false)
	require.NoError(t, err)
	assert.Equal(t, parisText, text)

	summary, err := p.SummarizeText(ctx, text, 30, 200, models.ModeConfig{Mode: models.ModeOffline})
	require.NoError(t, err)
	assert.Equal(t, parisText, summary)

	questions := p.GenerateQuestions(summary, 2)
	require.NotEmpty(t, questions)
	assert.LessOrEqual(t, len(questions), 2)
	for _, q := range questions {
		assert.Contains(t, q.Question, quiz.Blank)
		assert.Contains(t, q.Options, q.Answer)
		assert.Len(t, q.Options, 4)
	}
}

func TestProcessStoresSession(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	p, _ := newTestPipeline(t, WithStore(store))
	path := writeFile(t, "notes.md", parisText)

	session, err := p.Process(context.Background(), ProcessRequest{
		Source:       models.SourceInfo{Path: path},
		Language:     "eng",
		Mode:         models.ModeConfig{Mode: models.ModeOffline},
		MinLength:    30,
		MaxLength:    200,
		NumQuestions: 3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, models.ModeOffline, session.Mode)
	assert.Equal(t, len([]rune(parisText)), session.TextChars)
	assert.NotEmpty(t, session.Questions)

	stored, err := store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Summary, stored.Summary)
	assert.Equal(t, session.Questions, stored.Questions)
}

func TestProcessWithoutQuiz(t *testing.T) {
	p, _ := newTestPipeline(t)
	path := writeFile(t, "notes.txt", parisText)

	session, err := p.Process(context.Background(), ProcessRequest{
		Source:    models.SourceInfo{Path: path},
		Mode:      models.ModeConfig{Mode: models.ModeOffline},
		MinLength: 30,
		MaxLength: 200,
	})
	require.NoError(t, err)
	assert.Empty(t, session.ID)
	assert.Empty(t, session.Questions)
}

func TestBlankImageYieldsNoTextAndNoQuestions(t *testing.T) {
	p, backend := newTestPipeline(t)

	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	path := filepath.Join(t.TempDir(), "blank.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	text, err := p.ExtractTextFromFile(context.Background(), path, "auto", false)
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Equal(t, []models.Question{}, p.GenerateQuestions(text, 5))

	_, err = p.Process(context.Background(), ProcessRequest{
		Source: models.SourceInfo{Path: path},
		Mode:   models.ModeConfig{Mode: models.ModeOffline},
	})
	assert.ErrorIs(t, err, ErrNoTextExtracted)
	assert.Zero(t, backend.calls)
}

func TestProcessErrors(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	_, err := p.Process(ctx, ProcessRequest{Source: models.SourceInfo{Path: writeFile(t, "slides.pptx", "x")}})
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)

	_, err = p.Process(ctx, ProcessRequest{
		Source: models.SourceInfo{Path: writeFile(t, "notes.txt", parisText)},
		Mode:   models.ModeConfig{Mode: models.ModeOnline},
	})
	assert.ErrorIs(t, err, summarize.ErrMissingCredential)

	_, err = p.Process(ctx, ProcessRequest{Source: models.SourceInfo{URL: "https://example.com/a.txt"}})
	assert.ErrorContains(t, err, "remote sources are not enabled")
}

func TestProcessFetchedSource(t *testing.T) {
	fetcher := &fakeFetcher{path: writeFile(t, "fetched.txt", parisText)}
	p, _ := newTestPipeline(t, WithFetcher(fetcher))

	session, err := p.Process(context.Background(), ProcessRequest{
		Source: models.SourceInfo{URL: "https://example.com/notes.txt"},
		Mode:   models.ModeConfig{Mode: models.ModeOffline},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/notes.txt", session.Source.URL)
	assert.True(t, fetcher.cleaned)
}
