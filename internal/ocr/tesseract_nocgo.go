//go:build !cgo

package ocr

import (
	"context"
	"errors"
)

// ErrOCRUnavailable is returned by TesseractEngine in builds without cgo.
var ErrOCRUnavailable = errors.New("OCR requires a cgo build with Tesseract installed (apt install libtesseract-dev tesseract-ocr)")

// TesseractEngine is a stand-in that always fails; Reader turns the failure
// into empty text.
type TesseractEngine struct{}

func NewTesseractEngine(string) *TesseractEngine {
	return &TesseractEngine{}
}

func (e *TesseractEngine) Available() bool { return false }

func (e *TesseractEngine) Recognize(context.Context, []byte, string, Layout) (string, error) {
	return "", ErrOCRUnavailable
}
