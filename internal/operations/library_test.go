package operations

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/models"
)

func TestAttachmentFormat(t *testing.T) {
	tests := []struct {
		contentType string
		filename    string
		want        models.DocumentFormat
	}{
		{"application/pdf", "paper.pdf", models.FormatPDF},
		{"application/pdf; charset=binary", "", models.FormatPDF},
		{"text/plain", "notes", models.FormatText},
		{"image/png", "scan.png", models.FormatImage},
		{"image/jpeg", "", models.FormatImage},
		{"image/svg+xml", "diagram.svg", models.FormatUnknown},
		{"text/html", "snapshot.html", models.FormatUnknown},
		{"", "lecture.md", models.FormatText},
		{"application/octet-stream", "board.JPG", models.FormatImage},
		{"", "", models.FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.contentType+"|"+tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, attachmentFormat(tt.contentType, tt.filename))
		})
	}
}

func TestFindStudyMaterial_MissingCredentials(t *testing.T) {
	log := logger.NewNoOpLogger()

	_, err := FindStudyMaterial(context.Background(), "", "12345", LibrarySearchParams{}, log)
	assert.EqualError(t, err, "Zotero API key is required")

	_, err = FindStudyMaterial(context.Background(), "test-key", "", LibrarySearchParams{}, log)
	assert.EqualError(t, err, "Zotero library ID is required")
}

func TestFindStudyMaterial_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	apiKey := os.Getenv("ZOTERO_API_KEY")
	libraryID := os.Getenv("ZOTERO_LIBRARY_ID")
	if apiKey == "" || libraryID == "" {
		t.Skip("ZOTERO_API_KEY and ZOTERO_LIBRARY_ID not set, skipping integration test")
	}

	items, err := FindStudyMaterial(context.Background(), apiKey, libraryID, LibrarySearchParams{Limit: 5}, logger.NewNoOpLogger())
	require.NoError(t, err)
	for _, item := range items {
		require.NotEmpty(t, item.Attachments)
		for _, att := range item.Attachments {
			assert.NotEmpty(t, att.Key)
			assert.NotEqual(t, models.FormatUnknown, att.Format)
		}
	}
}
