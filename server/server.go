package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/operations"
	"github.com/Epistemic-Technology/studysage/resources"
	"github.com/Epistemic-Technology/studysage/tools"
)

// Version is reported to MCP clients.
var Version = "v0.1.0"

// CreateServer registers every StudySage tool and resource on a new MCP
// server. The returned Services must be closed by the caller.
func CreateServer(cfg *config.Config, log logger.Logger) (*mcp.Server, *operations.Services, error) {
	svc, err := operations.Build(cfg, log, operations.BuildOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return NewServer(svc, cfg, log), svc, nil
}

// NewServer registers tools and resources backed by already built services.
func NewServer(svc *operations.Services, cfg *config.Config, log logger.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "studysage", Version: Version}, nil)
	pipeline := svc.Pipeline

	mcp.AddTool(server, tools.TextExtractTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.TextExtractQuery) (*mcp.CallToolResult, *tools.TextExtractResponse, error) {
		return tools.TextExtractToolHandler(ctx, req, query, pipeline, cfg, log)
	})

	mcp.AddTool(server, tools.TextSummarizeTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.TextSummarizeQuery) (*mcp.CallToolResult, *tools.TextSummarizeResponse, error) {
		return tools.TextSummarizeToolHandler(ctx, req, query, pipeline, cfg, log)
	})

	mcp.AddTool(server, tools.QuizGenerateTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.QuizGenerateQuery) (*mcp.CallToolResult, *tools.QuizGenerateResponse, error) {
		return tools.QuizGenerateToolHandler(ctx, req, query, pipeline, cfg, log)
	})

	mcp.AddTool(server, tools.StudyProcessTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.StudyProcessQuery) (*mcp.CallToolResult, *tools.StudyProcessResponse, error) {
		return tools.StudyProcessToolHandler(ctx, req, query, pipeline, cfg, log)
	})

	mcp.AddTool(server, tools.LibrarySearchTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.LibrarySearchQuery) (*mcp.CallToolResult, *tools.LibrarySearchResponse, error) {
		return tools.LibrarySearchToolHandler(ctx, req, query, cfg, log)
	})

	if svc.Store == nil {
		return server
	}

	mcp.AddTool(server, tools.StudyExportTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.StudyExportQuery) (*mcp.CallToolResult, *tools.StudyExportResponse, error) {
		return tools.StudyExportToolHandler(ctx, req, query, svc.Store, svc.Exporter, log)
	})

	sessionResourceHandler := resources.NewSessionResourceHandler(svc.Store)

	// Template for a whole session
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "session://{sessionId}",
		Name:        "study-session",
		Description: "A processed document: source, mode, summary and quiz",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return sessionResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	// Template for the summary only
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "session://{sessionId}/summary",
		Name:        "study-summary",
		Description: "The summary of a study session",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return sessionResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	// Template for the quiz
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "session://{sessionId}/quiz",
		Name:        "study-quiz",
		Description: "The fill-in-the-blank questions of a study session",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return sessionResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	return server
}
