package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/studysage/internal/storage"
)

const scheme = "session://"

// SessionResourceHandler serves stored study sessions as MCP resources
type SessionResourceHandler struct {
	store storage.Store
}

// NewSessionResourceHandler creates a new session resource handler
func NewSessionResourceHandler(store storage.Store) *SessionResourceHandler {
	return &SessionResourceHandler{store: store}
}

// ListResources returns one resource per stored session part
func (h *SessionResourceHandler) ListResources(ctx context.Context) ([]*mcp.Resource, error) {
	sessions, err := h.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var resources []*mcp.Resource
	for _, s := range sessions {
		resources = append(resources,
			&mcp.Resource{
				URI:         scheme + s.ID,
				Name:        fmt.Sprintf("%s (Session)", s.Source),
				Description: fmt.Sprintf("Study session for %s, %s mode", s.Source, s.Mode),
				MIMEType:    "application/json",
			},
			&mcp.Resource{
				URI:         scheme + s.ID + "/summary",
				Name:        fmt.Sprintf("%s (Summary)", s.Source),
				Description: "Summary produced for the document",
				MIMEType:    "application/json",
			},
		)
		if s.QuestionCount > 0 {
			resources = append(resources, &mcp.Resource{
				URI:         scheme + s.ID + "/quiz",
				Name:        fmt.Sprintf("%s (Quiz)", s.Source),
				Description: fmt.Sprintf("%d fill-in-the-blank questions", s.QuestionCount),
				MIMEType:    "application/json",
			})
		}
	}

	return resources, nil
}

// ReadResource reads a specific resource by URI
func (h *SessionResourceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	// Parse URI: session://id/part
	if !strings.HasPrefix(uri, scheme) {
		return nil, fmt.Errorf("invalid URI scheme, expected %s", scheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, scheme), "/")
	sessionID := parts[0]
	if sessionID == "" {
		return nil, fmt.Errorf("invalid URI, missing session ID")
	}
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid URI: %s", uri)
	}
	part := ""
	if len(parts) == 2 {
		part = parts[1]
	}

	var (
		value any
		err   error
	)
	switch part {
	case "":
		value, err = h.store.GetSession(ctx, sessionID)
	case "summary":
		var summary string
		summary, err = h.store.GetSummary(ctx, sessionID)
		value = map[string]string{"session_id": sessionID, "summary": summary}
	case "quiz":
		value, err = h.store.GetQuestions(ctx, sessionID)
	default:
		return nil, fmt.Errorf("unknown resource type: %s", part)
	}
	if err != nil {
		return nil, err
	}

	content, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}
