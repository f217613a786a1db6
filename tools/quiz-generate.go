package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/operations"
	"github.com/Epistemic-Technology/studysage/models"
)

type QuizGenerateQuery struct {
	Summary      string `json:"summary"`
	NumQuestions int    `json:"num_questions,omitempty"` // default 5
}

type QuizGenerateResponse struct {
	Questions []models.Question `json:"questions"`
	Count     int               `json:"count"`
}

func QuizGenerateTool() *mcp.Tool {
	inputschema, err := jsonschema.For[QuizGenerateQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "quiz-generate",
		Description: "Generate fill-in-the-blank multiple-choice questions from a summary. Each question blanks one keyword and offers it among four options. Fewer questions than requested (possibly none) are returned when the summary is too short.",
		InputSchema: inputschema,
	}
}

func QuizGenerateToolHandler(ctx context.Context, req *mcp.CallToolRequest, query QuizGenerateQuery, pipeline *operations.Pipeline, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, *QuizGenerateResponse, error) {
	log.Info("quiz-generate tool called")

	n := query.NumQuestions
	if n <= 0 {
		n = cfg.Quiz.NumQuestions
	}
	questions := pipeline.GenerateQuestions(query.Summary, n)

	return nil, &QuizGenerateResponse{
		Questions: questions,
		Count:     len(questions),
	}, nil
}
