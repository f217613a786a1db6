package tools

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/studysage/internal/export"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/storage"
)

type StudyExportQuery struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"` // "summary" or "quiz"
}

type StudyExportResponse struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
}

func StudyExportTool() *mcp.Tool {
	inputschema, err := jsonschema.For[StudyExportQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "study-export",
		Description: "Export the summary or the quiz of a stored study session as a PDF file in the output directory. Returns the file path and its page count.",
		InputSchema: inputschema,
	}
}

func StudyExportToolHandler(ctx context.Context, req *mcp.CallToolRequest, query StudyExportQuery, store storage.Store, exporter *export.Exporter, log logger.Logger) (*mcp.CallToolResult, *StudyExportResponse, error) {
	log.Info("study-export tool called")

	if store == nil {
		return nil, nil, errors.New("session history is disabled")
	}
	kind, err := export.ParseKind(query.Kind)
	if err != nil {
		return nil, nil, err
	}
	session, err := store.GetSession(ctx, query.SessionID)
	if err != nil {
		return nil, nil, err
	}

	path, err := exporter.Export(kind, session)
	if err != nil {
		log.Error("Export failed: %v", err)
		return nil, nil, err
	}
	pages, err := export.Verify(path)
	if err != nil {
		return nil, nil, err
	}

	return nil, &StudyExportResponse{Path: path, Pages: pages}, nil
}
