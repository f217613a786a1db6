package storage

import (
	"context"
	"errors"

	"github.com/Epistemic-Technology/studysage/models"
)

// ErrNotFound is returned when a session ID is unknown.
var ErrNotFound = errors.New("session not found")

// Store defines the interface for storing and retrieving study sessions
type Store interface {
	// SaveSession stores a session and returns its ID. A session without an
	// ID gets a fresh one.
	SaveSession(ctx context.Context, session *models.StudySession) (string, error)

	// GetSession retrieves a full session by ID
	GetSession(ctx context.Context, id string) (*models.StudySession, error)

	// GetSummary retrieves only the summary of a session
	GetSummary(ctx context.Context, id string) (string, error)

	// GetQuestions retrieves the questions of a session in their original order
	GetQuestions(ctx context.Context, id string) ([]models.Question, error)

	// ListSessions returns all stored sessions, newest first
	ListSessions(ctx context.Context) ([]models.SessionInfo, error)

	// DeleteSession removes a session and its questions
	DeleteSession(ctx context.Context, id string) error

	// Close closes the database connection
	Close() error
}
