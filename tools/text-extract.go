package tools

import (
	"context"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/operations"
)

type TextExtractQuery struct {
	Path     string `json:"path,omitempty"`      // Local .txt, .md, .pdf or image file
	URL      string `json:"url,omitempty"`       // Document to download
	ZoteroID string `json:"zotero_id,omitempty"` // Zotero attachment key
	Language string `json:"language,omitempty"`  // Tesseract code such as "eng" or "eng+hin", or "auto"
	ForceOCR bool   `json:"force_ocr,omitempty"` // OCR PDFs even when they carry a text layer
}

type TextExtractResponse struct {
	Source     string `json:"source"`
	Characters int    `json:"characters"`
	Text       string `json:"text"`
}

func TextExtractTool() *mcp.Tool {
	inputschema, err := jsonschema.For[TextExtractQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "text-extract",
		Description: "Extract the text of study notes from a plain text or Markdown file, a PDF (text layer first, OCR for scanned pages) or an image (OCR). Provide exactly one of path, url or zotero_id. An image without readable text returns an empty string.",
		InputSchema: inputschema,
	}
}

func TextExtractToolHandler(ctx context.Context, req *mcp.CallToolRequest, query TextExtractQuery, pipeline *operations.Pipeline, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *TextExtractResponse, error) {
	log.Info("text-extract tool called")

	source, err := sourceOf(query.Path, query.URL, query.ZoteroID)
	if err != nil {
		return nil, nil, err
	}

	text, err := pipeline.ExtractTextFromSource(ctx, source, languageOf(cfg, query.Language), query.ForceOCR)
	if err != nil {
		log.Error("Extraction failed for %s: %v", source.Label(), err)
		return nil, nil, err
	}

	return nil, &TextExtractResponse{
		Source:     source.Label(),
		Characters: utf8.RuneCountInString(text),
		Text:       text,
	}, nil
}
