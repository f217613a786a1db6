package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/operations"
	"github.com/Epistemic-Technology/studysage/internal/storage"
	"github.com/Epistemic-Technology/studysage/models"
)

type StudyProcessQuery struct {
	Path         string `json:"path,omitempty"`
	URL          string `json:"url,omitempty"`
	ZoteroID     string `json:"zotero_id,omitempty"`
	Language     string `json:"language,omitempty"`
	ForceOCR     bool   `json:"force_ocr,omitempty"`
	Mode         string `json:"mode,omitempty"`
	MinLength    int    `json:"min_length,omitempty"`
	MaxLength    int    `json:"max_length,omitempty"`
	NumQuestions *int   `json:"num_questions,omitempty"` // 0 skips the quiz; default 5
}

type StudyProcessResponse struct {
	SessionID     string            `json:"session_id,omitempty"`
	ResourcePaths []string          `json:"resource_paths,omitempty"`
	Mode          models.Mode       `json:"mode"`
	Downgraded    bool              `json:"downgraded,omitempty"`
	Summary       string            `json:"summary"`
	Questions     []models.Question `json:"questions,omitempty"`
}

func StudyProcessTool() *mcp.Tool {
	inputschema, err := jsonschema.For[StudyProcessQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "study-process",
		Description: "Run the whole study pipeline on one document: extract its text, summarize it and generate quiz questions. The session is stored and can be read back through the returned session:// resources or exported with study-export.",
		InputSchema: inputschema,
	}
}

func StudyProcessToolHandler(ctx context.Context, req *mcp.CallToolRequest, query StudyProcessQuery, pipeline *operations.Pipeline, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *StudyProcessResponse, error) {
	log.Info("study-process tool called")

	source, err := sourceOf(query.Path, query.URL, query.ZoteroID)
	if err != nil {
		return nil, nil, err
	}
	mc, err := modeConfig(cfg, query.Mode)
	if err != nil {
		return nil, nil, err
	}
	minLength, maxLength := lengthsOf(cfg, query.MinLength, query.MaxLength)
	n := cfg.Quiz.NumQuestions
	if query.NumQuestions != nil {
		n = *query.NumQuestions
	}

	session, err := pipeline.Process(ctx, operations.ProcessRequest{
		Source:       source,
		Language:     languageOf(cfg, query.Language),
		ForceOCR:     query.ForceOCR,
		Mode:         mc,
		MinLength:    minLength,
		MaxLength:    maxLength,
		NumQuestions: n,
	})
	if err != nil {
		log.Error("Processing %s failed: %v", source.Label(), err)
		return nil, nil, err
	}

	response := &StudyProcessResponse{
		SessionID:  session.ID,
		Mode:       session.Mode,
		Downgraded: session.Downgraded,
		Summary:    session.Summary,
		Questions:  session.Questions,
	}
	if session.ID != "" {
		response.ResourcePaths = storage.CalculateResourcePaths(session)
	}

	return nil, response, nil
}
