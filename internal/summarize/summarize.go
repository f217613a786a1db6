// Package summarize produces length-bounded abstractive summaries locally or
// through a remote inference API, downgrading to local when the input is too
// large for the remote service.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Epistemic-Technology/studysage/internal/chunk"
	"github.com/Epistemic-Technology/studysage/internal/llm"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/models"
)

var (
	ErrTextTooLarge      = errors.New("text too large to summarize")
	ErrMissingCredential = errors.New("online mode requires an API key")
	ErrEmptyText         = errors.New("no text to summarize")

	ErrRemoteService     = llm.ErrRemoteService
	ErrMalformedResponse = llm.ErrMalformedResponse
)

type (
	RemoteServiceError     = llm.RemoteServiceError
	MalformedResponseError = llm.MalformedResponseError
)

// Backend summarizes a single chunk.
type Backend interface {
	Summarize(ctx context.Context, chunk string, minLength, maxLength int) (string, error)
}

// RemoteFactory builds the online backend for one call's API key.
type RemoteFactory func(apiKey string) Backend

// Limits bound input size per mode. Chunk sizes are in words.
type Limits struct {
	OnlineMaxWords   int
	OnlineMaxChars   int
	OfflineMaxWords  int
	OfflineMaxChars  int
	OnlineChunkSize  int
	OfflineChunkSize int
}

func DefaultLimits() Limits {
	return Limits{
		OnlineMaxWords:   800,
		OnlineMaxChars:   4000,
		OfflineMaxWords:  20000,
		OfflineMaxChars:  100000,
		OnlineChunkSize:  350,
		OfflineChunkSize: 800,
	}
}

// Result describes a finished summarization.
type Result struct {
	Summary    string      `json:"summary"`
	Mode       models.Mode `json:"mode"`
	Downgraded bool        `json:"downgraded,omitempty"`
	Chunks     int         `json:"chunks"`
}

// ProgressFunc receives (stage, step, total) updates.
type ProgressFunc func(stage string, step, total int)

// DowngradeStage is reported through ProgressFunc when online mode falls
// back to offline.
const DowngradeStage = "Switching to offline mode due to size limits"

type Service struct {
	local    Backend
	remote   RemoteFactory
	limits   Limits
	progress ProgressFunc
	log      logger.Logger
}

type Option func(*Service)

func WithLimits(l Limits) Option {
	return func(s *Service) { s.limits = l }
}

func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) { s.progress = fn }
}

func NewService(local Backend, remote RemoteFactory, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		local:  local,
		remote: remote,
		limits: DefaultLimits(),
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize returns the summary of text. See SummarizeDetailed.
func (s *Service) Summarize(ctx context.Context, text string, minLength, maxLength int, cfg models.ModeConfig) (string, error) {
	res, err := s.SummarizeDetailed(ctx, text, minLength, maxLength, cfg)
	if err != nil {
		return "", err
	}
	return res.Summary, nil
}

// SummarizeDetailed chunks text at sentence boundaries, summarizes every
// chunk in order with the backend for cfg.Mode and joins the results with
// single spaces. Online requests over the online limits run offline instead.
// Any chunk failure fails the whole call.
func (s *Service) SummarizeDetailed(ctx context.Context, text string, minLength, maxLength int, cfg models.ModeConfig) (*Result, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = models.ModeOffline
	}
	if mode != models.ModeOnline && mode != models.ModeOffline {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	words := chunk.WordCount(text)
	chars := utf8.RuneCountInString(text)
	downgraded := false

	if mode == models.ModeOnline && (words > s.limits.OnlineMaxWords || chars > s.limits.OnlineMaxChars) {
		s.log.Warn("Text has %d words / %d chars, over the online limits; switching to offline mode", words, chars)
		s.report(DowngradeStage, 0, 0)
		mode = models.ModeOffline
		downgraded = true
	}
	if mode == models.ModeOffline && (words > s.limits.OfflineMaxWords || chars > s.limits.OfflineMaxChars) {
		return nil, fmt.Errorf("%w: %d words / %d chars exceeds the offline limit of %d words / %d chars",
			ErrTextTooLarge, words, chars, s.limits.OfflineMaxWords, s.limits.OfflineMaxChars)
	}

	var (
		backend   Backend
		chunkSize int
	)
	if mode == models.ModeOnline {
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, ErrMissingCredential
		}
		if s.remote == nil {
			return nil, errors.New("no remote summarization backend configured")
		}
		backend = s.remote(cfg.APIKey)
		chunkSize = s.limits.OnlineChunkSize
	} else {
		if s.local == nil {
			return nil, errors.New("no local summarization backend configured")
		}
		backend = s.local
		chunkSize = s.limits.OfflineChunkSize
	}

	chunks := chunk.Split(text, chunkSize)
	s.log.Info("Summarizing %d words in %d chunk(s), mode=%s", words, len(chunks), mode)

	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		s.report("Summarizing", i+1, len(chunks))
		out, err := backend.Summarize(ctx, c, minLength, maxLength)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		parts = append(parts, out)
	}

	return &Result{
		Summary:    strings.TrimSpace(strings.Join(parts, " ")),
		Mode:       mode,
		Downgraded: downgraded,
		Chunks:     len(chunks),
	}, nil
}

func (s *Service) report(stage string, step, total int) {
	if s.progress != nil {
		s.progress(stage, step, total)
	}
}
