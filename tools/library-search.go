package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/operations"
)

type LibrarySearchQuery struct {
	Query      string   `json:"query,omitempty"`      // Quick search text (searches title, creator, year)
	Tags       []string `json:"tags,omitempty"`       // Filter by tags
	Collection string   `json:"collection,omitempty"` // Filter by collection key (optional)
	Limit      int      `json:"limit,omitempty"`      // Max results (default 25)
}

type LibrarySearchResponse struct {
	Items []operations.StudyItem `json:"items"`
	Count int                    `json:"count"`
}

func LibrarySearchTool() *mcp.Tool {
	inputschema, err := jsonschema.For[LibrarySearchQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "library-search",
		Description: "Search the configured Zotero library for study material. Only items with a PDF, image or text attachment are returned; pass an attachment key as zotero_id to text-extract or study-process.",
		InputSchema: inputschema,
	}
}

func LibrarySearchToolHandler(ctx context.Context, req *mcp.CallToolRequest, query LibrarySearchQuery, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *LibrarySearchResponse, error) {
	log.Info("library-search tool called")

	items, err := operations.FindStudyMaterial(ctx, cfg.Zotero.APIKey, cfg.Zotero.LibraryID, operations.LibrarySearchParams{
		Query:      query.Query,
		Tags:       query.Tags,
		Collection: query.Collection,
		Limit:      query.Limit,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	return nil, &LibrarySearchResponse{Items: items, Count: len(items)}, nil
}
