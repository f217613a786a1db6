// Package ocr recognizes text in images with image preprocessing and
// automatic language selection.
package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/Epistemic-Technology/studysage/internal/logger"
)

// Layout is the page segmentation strategy handed to the engine.
type Layout int

const (
	// LayoutUniformBlock treats the image as one block of text.
	LayoutUniformBlock Layout = iota
	// LayoutAuto lets the engine find the layout.
	LayoutAuto
)

func (l Layout) String() string {
	if l == LayoutAuto {
		return "auto"
	}
	return "block"
}

// Engine runs OCR on a PNG encoded image.
type Engine interface {
	Recognize(ctx context.Context, png []byte, lang string, layout Layout) (string, error)
}

// AutoLanguage selects the language from the image content.
const AutoLanguage = "auto"

const (
	defaultTimeout     = 30 * time.Second
	minExplicitChars   = 10
	minAutoChars       = 30
	minLatinRatio      = 0.25
	confidentDetection = 0.70
	englishCode        = "eng"
)

// Scripts tried alongside English when the first pass looks wrong.
var fallbackLanguages = []string{"hin", "guj", "ben", "mar", "tam", "tel"}

var layouts = []Layout{LayoutUniformBlock, LayoutAuto}

// Reader extracts text from image files. It never fails: anything that goes
// wrong yields an empty string.
type Reader struct {
	engine   Engine
	detector LanguageDetector
	timeout  time.Duration
	log      logger.Logger
}

type ReaderOption func(*Reader)

// WithTimeout bounds each engine invocation.
func WithTimeout(d time.Duration) ReaderOption {
	return func(r *Reader) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithDetector(d LanguageDetector) ReaderOption {
	return func(r *Reader) { r.detector = d }
}

func NewReader(engine Engine, log logger.Logger, opts ...ReaderOption) *Reader {
	r := &Reader{
		engine:   engine,
		detector: WhatlangDetector{},
		timeout:  defaultTimeout,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtractTextFromImage reads the image at path and returns its text. lang is
// a Tesseract language code such as "eng" or "eng+hin", or "auto".
func (r *Reader) ExtractTextFromImage(ctx context.Context, path string, lang string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		r.log.Warn("Failed to read image %s: %v", path, err)
		return ""
	}
	return r.ExtractTextFromBytes(ctx, data, lang)
}

// ExtractTextFromBytes is ExtractTextFromImage for encoded image data.
func (r *Reader) ExtractTextFromBytes(ctx context.Context, data []byte, lang string) string {
	img, err := DecodeImage(data)
	if err != nil {
		r.log.Warn("Failed to decode image: %v", err)
		return ""
	}

	var prepared image.Image
	if p, err := Preprocess(img); err != nil {
		r.log.Debug("Preprocessing failed, using plain grayscale: %v", err)
		prepared = Grayscale(img)
	} else {
		prepared = p
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		r.log.Warn("Failed to encode preprocessed image: %v", err)
		return ""
	}
	encoded := buf.Bytes()

	lang = strings.TrimSpace(lang)
	if lang == "" || strings.EqualFold(lang, AutoLanguage) {
		return r.recognizeAuto(ctx, encoded)
	}
	return r.recognizeExplicit(ctx, encoded, lang)
}

func (r *Reader) recognizeExplicit(ctx context.Context, img []byte, lang string) string {
	var first string
	for i, layout := range layouts {
		out := r.recognize(ctx, img, lang, layout)
		if i == 0 {
			first = out
		}
		if len(strings.TrimSpace(out)) >= minExplicitChars {
			return out
		}
	}
	return first
}

func (r *Reader) recognizeAuto(ctx context.Context, img []byte) string {
	best := ""
	for _, layout := range layouts {
		if out := r.recognize(ctx, img, englishCode, layout); len(out) > len(best) {
			best = out
		}
	}

	stripped := strings.TrimSpace(best)
	detected, confidence := "", 0.0
	if r.detector != nil {
		detected, confidence = r.detector.Detect(stripped)
	}

	retry := len(stripped) < minAutoChars ||
		latinRatio(stripped) < minLatinRatio ||
		(detected != "" && detected != englishCode && confidence >= confidentDetection)
	if !retry {
		return best
	}

	r.log.Debug("Retrying OCR with extra languages (detected=%q confidence=%.2f chars=%d)", detected, confidence, len(stripped))

	var combos []string
	if detected != "" {
		if detected == englishCode {
			combos = append(combos, englishCode)
		} else {
			combos = append(combos, englishCode+"+"+detected)
		}
	}
	for _, guess := range fallbackLanguages {
		if guess != detected {
			combos = append(combos, englishCode+"+"+guess)
		}
	}

	for _, combo := range combos {
		for _, layout := range layouts {
			out := r.recognize(ctx, img, combo, layout)
			if len(strings.TrimSpace(out)) > len(strings.TrimSpace(best)) {
				best = out
			}
		}
	}
	return best
}

// recognize treats engine failures as empty output.
func (r *Reader) recognize(ctx context.Context, img []byte, lang string, layout Layout) string {
	if r.engine == nil || ctx.Err() != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.engine.Recognize(ctx, img, lang, layout)
	if err != nil {
		r.log.Debug("OCR failed (lang=%s layout=%s): %v", lang, layout, err)
		return ""
	}
	return out
}
