package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/operations"
	"github.com/Epistemic-Technology/studysage/models"
)

type TextSummarizeQuery struct {
	Text      string `json:"text"`
	Mode      string `json:"mode,omitempty"`       // "online" or "offline"; defaults to the server setting
	MinLength int    `json:"min_length,omitempty"` // default 30
	MaxLength int    `json:"max_length,omitempty"` // default 200
}

type TextSummarizeResponse struct {
	Summary    string      `json:"summary"`
	Mode       models.Mode `json:"mode"`
	Downgraded bool        `json:"downgraded,omitempty"`
	Chunks     int         `json:"chunks"`
}

func TextSummarizeTool() *mcp.Tool {
	inputschema, err := jsonschema.For[TextSummarizeQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "text-summarize",
		Description: "Summarize text with a local model (offline) or the Hugging Face inference API (online). Online requests above 800 words or 4000 characters run offline instead; downgraded is set in that case.",
		InputSchema: inputschema,
	}
}

func TextSummarizeToolHandler(ctx context.Context, req *mcp.CallToolRequest, query TextSummarizeQuery, pipeline *operations.Pipeline, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *TextSummarizeResponse, error) {
	log.Info("text-summarize tool called")

	if strings.TrimSpace(query.Text) == "" {
		return nil, nil, errors.New("text is required")
	}
	mc, err := modeConfig(cfg, query.Mode)
	if err != nil {
		return nil, nil, err
	}
	minLength, maxLength := lengthsOf(cfg, query.MinLength, query.MaxLength)

	res, err := pipeline.SummarizeTextDetailed(ctx, query.Text, minLength, maxLength, mc)
	if err != nil {
		log.Error("Summarization failed: %v", err)
		return nil, nil, err
	}

	return nil, &TextSummarizeResponse{
		Summary:    res.Summary,
		Mode:       res.Mode,
		Downgraded: res.Downgraded,
		Chunks:     res.Chunks,
	}, nil
}
