package operations

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Epistemic-Technology/zotero/zotero"

	"github.com/Epistemic-Technology/studysage/internal/extract"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/models"
)

// LibrarySearchParams narrows a search of the user's Zotero library.
type LibrarySearchParams struct {
	Query      string   // Quick search text (searches title, creator, year)
	Tags       []string // Filter by tags
	Collection string   // Filter by collection key (optional)
	Limit      int      // Max results (default 25)
}

// StudyItem is a library entry with the attachments StudySage can read.
type StudyItem struct {
	Key         string          `json:"key"`
	Title       string          `json:"title"`
	Creators    []string        `json:"creators,omitempty"`
	ItemType    string          `json:"item_type"`
	Attachments []StudyMaterial `json:"attachments"`
}

// StudyMaterial is one readable attachment. Pass Key as a Zotero source.
type StudyMaterial struct {
	Key         string                `json:"key"`
	Filename    string                `json:"filename"`
	ContentType string                `json:"content_type"`
	Format      models.DocumentFormat `json:"format"`
}

// FindStudyMaterial searches the library and keeps only items that have at
// least one attachment in a format the extractor handles.
func FindStudyMaterial(ctx context.Context, apiKey, libraryID string, params LibrarySearchParams, log logger.Logger) ([]StudyItem, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Zotero API key is required")
	}
	if libraryID == "" {
		return nil, fmt.Errorf("Zotero library ID is required")
	}

	client := zotero.NewClient(libraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(apiKey))

	queryParams := &zotero.QueryParams{
		Q:        params.Query,
		QMode:    "titleCreatorYear",
		Tag:      params.Tags,
		ItemType: []string{"-attachment"},
		Limit:    params.Limit,
		Sort:     "dateModified",
	}
	if queryParams.Limit == 0 {
		queryParams.Limit = 25
	}

	var items []zotero.Item
	var err error
	if params.Collection != "" {
		items, err = client.CollectionItems(ctx, params.Collection, queryParams)
		if err != nil {
			log.Error("Failed to search collection %s: %v", params.Collection, err)
			return nil, fmt.Errorf("failed to search collection %s: %w", params.Collection, err)
		}
	} else {
		items, err = client.Items(ctx, queryParams)
		if err != nil {
			log.Error("Failed to search Zotero library: %v", err)
			return nil, fmt.Errorf("failed to search Zotero library: %w", err)
		}
	}

	log.Info("Found %d items in Zotero library", len(items))

	results := make([]StudyItem, 0, len(items))
	for _, item := range items {
		if item.Data.ItemType == "attachment" {
			continue
		}

		children, err := client.Children(ctx, item.Key, nil)
		if err != nil {
			log.Error("Failed to retrieve children for item %s: %v", item.Key, err)
			continue
		}

		result := StudyItem{
			Key:      item.Key,
			Title:    item.Data.Title,
			ItemType: item.Data.ItemType,
		}
		for _, creator := range item.Data.Creators {
			if creator.Name != "" {
				result.Creators = append(result.Creators, creator.Name)
			} else if creator.FirstName != "" || creator.LastName != "" {
				result.Creators = append(result.Creators, strings.TrimSpace(creator.FirstName+" "+creator.LastName))
			}
		}
		for _, child := range children {
			if child.Data.ItemType != "attachment" {
				continue
			}
			format := attachmentFormat(child.Data.ContentType, child.Data.Filename)
			if format == models.FormatUnknown {
				continue
			}
			result.Attachments = append(result.Attachments, StudyMaterial{
				Key:         child.Key,
				Filename:    child.Data.Filename,
				ContentType: child.Data.ContentType,
				Format:      format,
			})
		}
		if len(result.Attachments) > 0 {
			results = append(results, result)
		}
	}

	log.Info("Returning %d items with readable attachments", len(results))

	return results, nil
}

// attachmentFormat classifies an attachment by MIME type, falling back to
// the file extension.
func attachmentFormat(contentType, filename string) models.DocumentFormat {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch {
	case ct == "application/pdf":
		return models.FormatPDF
	case ct == "text/plain", ct == "text/markdown":
		return models.FormatText
	case strings.HasPrefix(ct, "image/"):
		if format := extract.FormatOf("x." + strings.TrimPrefix(ct, "image/")); format == models.FormatImage {
			return format
		}
	}
	if filename != "" {
		return extract.FormatOf(filepath.Base(filename))
	}
	return models.FormatUnknown
}
