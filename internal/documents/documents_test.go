package documents

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/models"
)

func TestDetectDocumentType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{
			name:     "PDF document",
			data:     []byte("%PDF-1.4\nsome pdf content"),
			expected: "pdf",
		},
		{
			name:     "PNG image",
			data:     []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"),
			expected: "png",
		},
		{
			name:     "JPEG image",
			data:     []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
			expected: "jpg",
		},
		{
			name:     "GIF image",
			data:     []byte("GIF89a\x01\x00\x01\x00"),
			expected: "gif",
		},
		{
			name:     "BMP image",
			data:     append([]byte("BM"), make([]byte, 20)...),
			expected: "bmp",
		},
		{
			name:     "TIFF little endian",
			data:     []byte("II*\x00\x08\x00\x00\x00"),
			expected: "tiff",
		},
		{
			name:     "WEBP image",
			data:     []byte("RIFF\x24\x00\x00\x00WEBPVP8 "),
			expected: "webp",
		},
		{
			name:     "HTML page",
			data:     []byte("<!DOCTYPE html>\n<html><body><p>Notes</p></body></html>"),
			expected: "html",
		},
		{
			name:     "HTML without doctype",
			data:     []byte("  <html lang=\"en\"><head></head></html>"),
			expected: "html",
		},
		{
			name:     "Plain text",
			data:     []byte("This is just plain text content"),
			expected: "txt",
		},
		{
			name:     "UTF-8 text with accents",
			data:     []byte("La tour Eiffel se trouve à Paris, en France. Élégante et célèbre."),
			expected: "txt",
		},
		{
			name:     "Text with BOM",
			data:     []byte("\xEF\xBB\xBFHello"),
			expected: "txt",
		},
		{
			name:     "Binary data",
			data:     []byte{0x00, 0x01, 0x02, 0xFF, 0xFE},
			expected: "unknown",
		},
		{
			name:     "Empty data",
			data:     []byte{},
			expected: "unknown",
		},
		{
			name:     "Very short data",
			data:     []byte("ab"),
			expected: "txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDocumentType(tt.data))
		})
	}
}

func TestIsLikelyText(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{
			name:     "Plain text",
			data:     []byte("This is plain text with spaces and punctuation!"),
			expected: true,
		},
		{
			name:     "Text with newlines",
			data:     []byte("Line 1\nLine 2\nLine 3"),
			expected: true,
		},
		{
			name:     "Text with tabs",
			data:     []byte("Column1\tColumn2\tColumn3"),
			expected: true,
		},
		{
			name:     "Cyrillic text",
			data:     []byte("Москва является столицей России."),
			expected: true,
		},
		{
			name:     "Binary with null byte",
			data:     []byte{0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x00, 0x57, 0x6F, 0x72, 0x6C, 0x64},
			expected: false,
		},
		{
			name:     "Mostly binary data",
			data:     []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD},
			expected: false,
		},
		{
			name:     "Invalid UTF-8",
			data:     bytes.Repeat([]byte{0xC3, 0x28, 0xA0, 0xA1}, 10),
			expected: false,
		},
		{
			name:     "Mixed text and non-printable (but mostly text)",
			data:     append([]byte("This is mostly text "), []byte{0x7F, 0x1B}...),
			expected: true,
		},
		{
			name:     "Empty data",
			data:     []byte{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isLikelyText(tt.data))
		})
	}
}

func TestIsLikelyTextLongMultibyte(t *testing.T) {
	// the 512 byte sample ends in the middle of a two byte rune
	data := []byte("a" + strings.Repeat("é", 400))
	assert.True(t, isLikelyText(data))
}

func minimalPDF(t *testing.T) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(40, 10, "Hello")
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestFetchFromURL(t *testing.T) {
	pdfData := minimalPDF(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notes":
			_, _ = w.Write([]byte("Plain study notes."))
		case "/paper":
			_, _ = w.Write(pdfData)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<!doctype html><html><body><h1>Cells</h1><p>The <strong>mitochondria</strong> is the powerhouse of the cell.</p></body></html>"))
		case "/broken":
			_, _ = w.Write([]byte("%PDF-1.4\nthis is not really a pdf"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(logger.NewNoOpLogger(), WithTempDir(dir))
	ctx := context.Background()

	path, cleanup, err := f.Fetch(ctx, models.SourceInfo{URL: srv.URL + "/notes"})
	require.NoError(t, err)
	assert.Equal(t, ".txt", filepath.Ext(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Plain study notes.", string(content))
	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	path, cleanup, err = f.Fetch(ctx, models.SourceInfo{URL: srv.URL + "/paper"})
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(path))
	cleanup()

	path, cleanup, err = f.Fetch(ctx, models.SourceInfo{URL: srv.URL + "/page"})
	require.NoError(t, err)
	assert.Equal(t, ".md", filepath.Ext(path))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Cells")
	assert.Contains(t, string(content), "**mitochondria**")
	assert.NotContains(t, string(content), "<p>")
	cleanup()

	_, _, err = f.Fetch(ctx, models.SourceInfo{URL: srv.URL + "/broken"})
	assert.ErrorContains(t, err, "invalid PDF")

	_, _, err = f.Fetch(ctx, models.SourceInfo{URL: srv.URL + "/missing"})
	assert.ErrorContains(t, err, "status 404")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetDataRequiresSource(t *testing.T) {
	f := NewFetcher(logger.NewNoOpLogger())
	_, _, err := f.GetData(context.Background(), models.SourceInfo{})
	assert.ErrorContains(t, err, "no data provided")
}

func TestGetFromZoteroWithoutCredentials(t *testing.T) {
	f := NewFetcher(logger.NewNoOpLogger())
	_, err := f.GetFromZotero(context.Background(), "ABCD1234")
	assert.ErrorContains(t, err, "credentials")
}

func TestHTMLToMarkdown(t *testing.T) {
	md, err := HTMLToMarkdown([]byte(`<html><body><h2>Photosynthesis</h2><ul><li>light</li><li>water</li></ul></body></html>`), "")
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Photosynthesis")
	assert.Contains(t, string(md), "light")

	_, err = HTMLToMarkdown([]byte(`<html><body>   </body></html>`), "")
	assert.Error(t, err)
}
