// Package documents fetches study material from remote sources into local
// files the extractor can read.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Epistemic-Technology/zotero/zotero"

	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/models"
)

// MaxDownloadBytes bounds a single fetched document.
const MaxDownloadBytes = 64 << 20

// DetectDocumentType determines the type of document from the raw data
// by checking magic bytes/headers. The result is a file extension without
// the dot, or "unknown".
func DetectDocumentType(data []byte) string {
	if len(data) == 0 {
		return "unknown"
	}

	// For very short data, check if it's text
	if len(data) < 4 {
		if isLikelyText(data) {
			return "txt"
		}
		return "unknown"
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return "pdf"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "jpg"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case bytes.HasPrefix(data, []byte("BM")) && len(data) >= 14:
		return "bmp"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff"
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	}

	if isHTML(data) {
		return "html"
	}

	// UTF-8 byte order mark
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) || isLikelyText(data) {
		return "txt"
	}

	return "unknown"
}

func isHTML(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.ToLower(bytes.TrimSpace(bytes.TrimPrefix(head, []byte{0xEF, 0xBB, 0xBF})))
	return bytes.HasPrefix(head, []byte("<!doctype html")) ||
		bytes.HasPrefix(head, []byte("<html")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<html")))
}

// isLikelyText checks if the data is likely plain text (no binary content)
func isLikelyText(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sampleSize := min(len(data), 512)
	sample := data[:sampleSize]

	// Check for null bytes (strong indicator of binary content)
	if bytes.Contains(sample, []byte{0}) {
		return false
	}

	// Count printable vs non-printable runes. A rune cut off by the sample
	// boundary is not held against the data.
	printable, total := 0, 0
	for i := 0; i < len(sample); {
		r, size := utf8.DecodeRune(sample[i:])
		if r == utf8.RuneError && size <= 1 && len(sample)-i < utf8.UTFMax && sampleSize < len(data) {
			break
		}
		total++
		if r != utf8.RuneError && (unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t') {
			printable++
		}
		i += size
	}
	if total == 0 {
		return false
	}

	// If more than 90% is printable, likely text
	return float64(printable)/float64(total) > 0.9
}

// Fetcher downloads documents from URLs and Zotero libraries.
type Fetcher struct {
	http            *http.Client
	zoteroAPIKey    string
	zoteroLibraryID string
	tempDir         string
	log             logger.Logger
}

type Option func(*Fetcher)

// WithZotero sets the credentials used for Zotero attachments.
func WithZotero(apiKey, libraryID string) Option {
	return func(f *Fetcher) {
		f.zoteroAPIKey = apiKey
		f.zoteroLibraryID = libraryID
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.http = c }
}

func WithTempDir(dir string) Option {
	return func(f *Fetcher) { f.tempDir = dir }
}

func NewFetcher(log logger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		http: &http.Client{Timeout: 2 * time.Minute},
		log:  log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetData retrieves document data from a source and detects its type
func (f *Fetcher) GetData(ctx context.Context, sourceInfo models.SourceInfo) ([]byte, string, error) {
	var data []byte
	var err error

	if sourceInfo.ZoteroID != "" {
		data, err = f.GetFromZotero(ctx, sourceInfo.ZoteroID)
		if err != nil {
			return nil, "", err
		}
	} else if sourceInfo.URL != "" {
		data, err = f.GetFromURL(ctx, sourceInfo.URL)
		if err != nil {
			return nil, "", err
		}
	} else {
		return nil, "", errors.New("no data provided")
	}

	if len(data) == 0 {
		return nil, "", errors.New("no data retrieved")
	}

	docType := DetectDocumentType(data)
	switch docType {
	case "pdf":
		if err := ValidatePDF(data); err != nil {
			return nil, "", err
		}
	case "html":
		data, err = HTMLToMarkdown(data, sourceInfo.URL)
		if err != nil {
			return nil, "", err
		}
		docType = "md"
	}

	return data, docType, nil
}

// Fetch downloads the source into a temporary file named with the detected
// extension. The caller removes the file with the returned cleanup func.
func (f *Fetcher) Fetch(ctx context.Context, sourceInfo models.SourceInfo) (string, func(), error) {
	data, docType, err := f.GetData(ctx, sourceInfo)
	if err != nil {
		return "", nil, err
	}

	tmp, err := os.CreateTemp(f.tempDir, "studysage-fetch-*."+docType)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	f.log.Info("Fetched %s (%d bytes, type %s)", sourceInfo.Label(), len(data), docType)
	return tmp.Name(), cleanup, nil
}

// GetFromURL fetches document data from a URL
func (f *Fetcher) GetFromURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if len(data) > MaxDownloadBytes {
		return nil, fmt.Errorf("document at %s exceeds %d bytes", url, MaxDownloadBytes)
	}
	return data, nil
}

// GetFromZotero fetches an attachment from the configured Zotero library
func (f *Fetcher) GetFromZotero(ctx context.Context, zoteroID string) ([]byte, error) {
	if f.zoteroAPIKey == "" || f.zoteroLibraryID == "" {
		return nil, errors.New("zotero credentials not configured")
	}
	client := zotero.NewClient(f.zoteroLibraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(f.zoteroAPIKey))
	data, err := client.File(ctx, zoteroID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch zotero item %s: %w", zoteroID, err)
	}
	return data, nil
}
