package extract

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// PDFOpener opens PDF files for reading.
type PDFOpener interface {
	Open(path string) (PDFDocument, error)
}

// PDFDocument gives page-level access to an open PDF. Pages are 0-indexed.
type PDFDocument interface {
	NumPages() int
	PageText(page int) (string, error)
	RenderPage(page int, dpi float64) (image.Image, error)
	Close() error
}

// FitzOpener reads PDFs with MuPDF through go-fitz.
type FitzOpener struct{}

func (FitzOpener) Open(path string) (PDFDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPages() int { return d.doc.NumPage() }

func (d *fitzDocument) PageText(page int) (string, error) {
	return d.doc.Text(page)
}

func (d *fitzDocument) RenderPage(page int, dpi float64) (image.Image, error) {
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
