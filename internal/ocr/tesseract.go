//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs Tesseract through gosseract. A fresh client is used
// per call since gosseract clients are not safe for concurrent use. Runs are
// serialized: gosseract cannot be interrupted, so a run that outlives its
// context still finishes before the next one starts.
type TesseractEngine struct {
	tessdataPrefix string
	gate           runGate
}

func NewTesseractEngine(tessdataPrefix string) *TesseractEngine {
	return &TesseractEngine{tessdataPrefix: tessdataPrefix, gate: newRunGate()}
}

// Available reports whether OCR can run in this build.
func (e *TesseractEngine) Available() bool { return true }

func (e *TesseractEngine) Recognize(ctx context.Context, png []byte, lang string, layout Layout) (string, error) {
	text, err := e.gate.do(ctx, func() (string, error) {
		return e.run(png, lang, layout)
	})
	if err != nil && ctx.Err() != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, err
}

func (e *TesseractEngine) run(png []byte, lang string, layout Layout) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return "", fmt.Errorf("failed to set language %q: %w", lang, err)
	}

	psm := gosseract.PSM_SINGLE_BLOCK
	if layout == LayoutAuto {
		psm = gosseract.PSM_AUTO
	}
	if err := client.SetPageSegMode(psm); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return "", fmt.Errorf("failed to set variable: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
