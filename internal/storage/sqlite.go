package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Epistemic-Technology/studysage/models"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		source_path TEXT,
		zotero_id TEXT,
		url TEXT,
		mode TEXT NOT NULL,
		downgraded INTEGER NOT NULL DEFAULT 0,
		text_chars INTEGER NOT NULL DEFAULT 0,
		summary TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		session_id TEXT NOT NULL,
		question_index INTEGER NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		options TEXT NOT NULL,
		PRIMARY KEY (session_id, question_index),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSession stores a session and its questions in one transaction,
// replacing any earlier session with the same ID.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *models.StudySession) (string, error) {
	if session == nil {
		return "", errors.New("nil session")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM questions WHERE session_id = ?`, session.ID)
	if err != nil {
		return "", fmt.Errorf("failed to clear questions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, source_path, zotero_id, url, mode, downgraded, text_chars, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.Source.Path, session.Source.ZoteroID, session.Source.URL,
		string(session.Mode), session.Downgraded, session.TextChars, session.Summary,
		session.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	for i, q := range session.Questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return "", fmt.Errorf("failed to marshal options: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (session_id, question_index, question, answer, options)
			VALUES (?, ?, ?, ?, ?)
		`, session.ID, i, q.Question, q.Answer, string(optionsJSON))
		if err != nil {
			return "", fmt.Errorf("failed to insert question %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return session.ID, nil
}

// GetSession retrieves a full session by ID
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.StudySession, error) {
	var (
		session models.StudySession
		mode    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_path, zotero_id, url, mode, downgraded, text_chars, summary, created_at
		FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.Source.Path, &session.Source.ZoteroID, &session.Source.URL,
		&mode, &session.Downgraded, &session.TextChars, &session.Summary, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	session.Mode = models.Mode(mode)

	questions, err := s.queryQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Questions = questions

	return &session, nil
}

// GetSummary retrieves only the summary of a session
func (s *SQLiteStore) GetSummary(ctx context.Context, id string) (string, error) {
	var summary string
	err := s.db.QueryRowContext(ctx, `SELECT summary FROM sessions WHERE id = ?`, id).Scan(&summary)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query summary: %w", err)
	}
	return summary, nil
}

// GetQuestions retrieves the questions of a session in their original order
func (s *SQLiteStore) GetQuestions(ctx context.Context, id string) ([]models.Question, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return s.queryQuestions(ctx, id)
}

func (s *SQLiteStore) queryQuestions(ctx context.Context, id string) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question, answer, options
		FROM questions
		WHERE session_id = ?
		ORDER BY question_index
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var (
			q           models.Question
			optionsJSON string
		)
		if err := rows.Scan(&q.Question, &q.Answer, &optionsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}

// ListSessions returns all stored sessions, newest first
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]models.SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.source_path, s.zotero_id, s.url, s.mode, s.created_at,
			(SELECT COUNT(*) FROM questions q WHERE q.session_id = s.id)
		FROM sessions s
		ORDER BY s.created_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.SessionInfo{}
	for rows.Next() {
		var (
			info   models.SessionInfo
			source models.SourceInfo
			mode   string
		)
		if err := rows.Scan(&info.ID, &source.Path, &source.ZoteroID, &source.URL,
			&mode, &info.CreatedAt, &info.QuestionCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		info.Source = source.Label()
		info.Mode = models.Mode(mode)
		sessions = append(sessions, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// DeleteSession removes a session and its questions
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
