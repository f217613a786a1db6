package operations

import (
	"fmt"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/documents"
	"github.com/Epistemic-Technology/studysage/internal/export"
	"github.com/Epistemic-Technology/studysage/internal/extract"
	"github.com/Epistemic-Technology/studysage/internal/llm"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/ocr"
	"github.com/Epistemic-Technology/studysage/internal/quiz"
	"github.com/Epistemic-Technology/studysage/internal/storage"
	"github.com/Epistemic-Technology/studysage/internal/summarize"
)

// ProgressFunc receives (stage, step, total) updates from every stage.
type ProgressFunc func(stage string, step, total int)

// Services is a fully wired pipeline plus the collaborators front ends use
// directly.
type Services struct {
	Pipeline   *Pipeline
	LocalModel *llm.LocalModel
	Exporter   *export.Exporter
	Store      storage.Store
}

// BuildOptions tweaks Build.
type BuildOptions struct {
	Progress ProgressFunc
	// NoStore disables session history.
	NoStore bool
}

// Build wires the production components described by cfg.
func Build(cfg *config.Config, log logger.Logger, opts BuildOptions) (*Services, error) {
	progress := opts.Progress
	if progress == nil {
		progress = func(string, int, int) {}
	}

	engine := ocr.NewTesseractEngine(cfg.OCR.TessdataPrefix)
	if !engine.Available() {
		log.Warn("Tesseract is not available in this build; image OCR will return no text")
	}
	reader := ocr.NewReader(engine, log, ocr.WithTimeout(cfg.OCR.Timeout))
	extractor := extract.New(reader, log, extract.WithProgress(extract.ProgressFunc(progress)))

	local := llm.NewLocalModel(llm.LocalConfig{
		Host:      cfg.Local.Host,
		Model:     cfg.Local.Model,
		ModelsDir: cfg.Local.ModelsDir,
		Timeout:   cfg.Local.Timeout,
	}, log)

	// one limiter shared by every remote client built from this config
	limiter := llm.NewLimiter(cfg.Remote.RequestsPerSecond)
	remote := func(apiKey string) summarize.Backend {
		return llm.NewHuggingFaceClient(apiKey, llm.HuggingFaceConfig{
			BaseURL: cfg.Remote.BaseURL,
			Model:   cfg.Remote.Model,
			Timeout: cfg.Remote.Timeout,
			Limiter: limiter,
		}, log)
	}
	summarizer := summarize.NewService(local, remote, log,
		summarize.WithLimits(LimitsFromConfig(cfg.Limits)),
		summarize.WithProgress(summarize.ProgressFunc(progress)),
	)

	generator := quiz.NewGenerator(log, quiz.WithProgress(quiz.ProgressFunc(progress)))

	fetcher := documents.NewFetcher(log, documents.WithZotero(cfg.Zotero.APIKey, cfg.Zotero.LibraryID))

	pipelineOpts := []PipelineOption{WithFetcher(fetcher)}
	var store storage.Store
	if !opts.NoStore {
		s, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		log.Info("Session store initialized at: %s", cfg.Storage.Path)
		store = s
		pipelineOpts = append(pipelineOpts, WithStore(s))
	}

	return &Services{
		Pipeline:   NewPipeline(extractor, summarizer, generator, log, pipelineOpts...),
		LocalModel: local,
		Exporter:   export.New(cfg.Output.Dir, log),
		Store:      store,
	}, nil
}

// Close releases the session store.
func (s *Services) Close() error {
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}

// LimitsFromConfig converts the configured size limits.
func LimitsFromConfig(l config.Limits) summarize.Limits {
	return summarize.Limits{
		OnlineMaxWords:   l.OnlineMaxWords,
		OnlineMaxChars:   l.OnlineMaxChars,
		OfflineMaxWords:  l.OfflineMaxWords,
		OfflineMaxChars:  l.OfflineMaxChars,
		OnlineChunkSize:  l.OnlineChunkSize,
		OfflineChunkSize: l.OfflineChunkSize,
	}
}
