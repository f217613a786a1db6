// Package extract turns documents and images into plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/models"
)

const (
	// MinTextLayerChars is the shortest trimmed text layer accepted before a
	// PDF is treated as scanned.
	MinTextLayerChars = 10
	// RasterDPI is the resolution used to render PDF pages for OCR.
	RasterDPI = 300.0
)

var (
	textExtensions = map[string]bool{
		".txt": true, ".md": true, ".markdown": true, ".py": true, ".json": true,
		".csv": true, ".log": true, ".rst": true,
	}
	imageExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".tif": true,
		".tiff": true, ".gif": true, ".webp": true,
	}
)

// ErrUnsupportedFormat matches every *UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// UnsupportedFormatError reports a file extension that no extractor handles.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Ext)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// FormatOf classifies a path by its extension.
func FormatOf(path string) models.DocumentFormat {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case textExtensions[ext]:
		return models.FormatText
	case imageExtensions[ext]:
		return models.FormatImage
	case ext == ".pdf":
		return models.FormatPDF
	default:
		return models.FormatUnknown
	}
}

// ImageReader recognizes text in an image file. It returns "" when nothing
// is found and never fails.
type ImageReader interface {
	ExtractTextFromImage(ctx context.Context, path string, lang string) string
}

// ProgressFunc receives (stage, step, total) updates.
type ProgressFunc func(stage string, step, total int)

// Extractor dispatches on file type.
type Extractor struct {
	images   ImageReader
	pdfs     PDFOpener
	tempDir  string
	progress ProgressFunc
	log      logger.Logger
}

type Option func(*Extractor)

func WithPDFOpener(o PDFOpener) Option {
	return func(e *Extractor) { e.pdfs = o }
}

// WithTempDir sets where rasterized pages are written. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(e *Extractor) { e.tempDir = dir }
}

func WithProgress(fn ProgressFunc) Option {
	return func(e *Extractor) { e.progress = fn }
}

func New(images ImageReader, log logger.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		images: images,
		pdfs:   FitzOpener{},
		log:    log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the text of the file at path. lang is the OCR language
// hint ("auto" or a Tesseract code). forceOCR skips the PDF text layer.
func (e *Extractor) Extract(ctx context.Context, path string, lang string, forceOCR bool) (string, error) {
	switch FormatOf(path) {
	case models.FormatText:
		return readText(path)
	case models.FormatImage:
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("failed to open image: %w", err)
		}
		e.report("Running OCR", 0, 1)
		text := e.images.ExtractTextFromImage(ctx, path, lang)
		e.report("Running OCR", 1, 1)
		return text, nil
	case models.FormatPDF:
		return e.extractPDF(ctx, path, lang, forceOCR)
	default:
		return "", &UnsupportedFormatError{Ext: strings.ToLower(filepath.Ext(path))}
	}
}

func (e *Extractor) report(stage string, step, total int) {
	if e.progress != nil {
		e.progress(stage, step, total)
	}
}

// readText decodes UTF-8 (honouring a BOM) and substitutes invalid bytes.
func readText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open text file: %w", err)
	}
	defer f.Close()

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string, lang string, forceOCR bool) (string, error) {
	doc, err := e.pdfs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	n := doc.NumPages()
	if !forceOCR {
		text := e.textLayer(doc, n)
		if len(strings.TrimSpace(text)) >= MinTextLayerChars {
			return text, nil
		}
		e.log.Info("PDF %s has no usable text layer, falling back to OCR", filepath.Base(path))
	}
	return e.ocrPages(ctx, doc, n, lang)
}

func (e *Extractor) textLayer(doc PDFDocument, n int) string {
	var pages []string
	for i := 0; i < n; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			e.log.Warn("Failed to read text layer of page %d: %v", i+1, err)
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			pages = append(pages, t)
		}
	}
	return strings.Join(pages, "\n")
}

func (e *Extractor) ocrPages(ctx context.Context, doc PDFDocument, n int, lang string) (string, error) {
	var pages []string
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		e.report("OCR pages", i+1, n)
		if t := strings.TrimSpace(e.ocrPage(ctx, doc, i, lang)); t != "" {
			pages = append(pages, t)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// ocrPage renders one page to a temporary PNG, runs OCR on it and removes the
// file again whatever the outcome.
func (e *Extractor) ocrPage(ctx context.Context, doc PDFDocument, i int, lang string) string {
	img, err := doc.RenderPage(i, RasterDPI)
	if err != nil {
		e.log.Warn("Failed to render page %d: %v", i+1, err)
		return ""
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		e.log.Warn("Failed to encode page %d: %v", i+1, err)
		return ""
	}

	tmp, err := os.CreateTemp(e.tempDir, fmt.Sprintf("studysage-page-%d-*.png", i))
	if err != nil {
		e.log.Warn("Failed to create temp file for page %d: %v", i+1, err)
		return ""
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.log.Warn("Failed to remove temp file %s: %v", tmp.Name(), err)
		}
	}()

	_, werr := tmp.Write(buf.Bytes())
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		e.log.Warn("Failed to write page %d: %v", i+1, errors.Join(werr, cerr))
		return ""
	}

	return e.images.ExtractTextFromImage(ctx, tmp.Name(), lang)
}
