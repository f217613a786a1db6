package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/studysage/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "studysage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSession() *models.StudySession {
	return &models.StudySession{
		Source:    models.SourceInfo{Path: "notes/paris.pdf"},
		Mode:      models.ModeOffline,
		TextChars: 120,
		Summary:   "Paris is the capital of France.",
		Questions: []models.Question{
			{Question: "Paris is the capital of _____.", Answer: "France", Options: []string{"Tower", "France", "Eiffel", "Capital"}},
			{Question: "_____ is the capital of France.", Answer: "Paris", Options: []string{"Paris", "Tower", "Eiffel", "France"}},
		},
	}
}

func TestSaveAndGetSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	session := sampleSession()
	id, err := store.SaveSession(ctx, session)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, session.ID)

	got, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.Summary, got.Summary)
	assert.Equal(t, session.Source, got.Source)
	assert.Equal(t, models.ModeOffline, got.Mode)
	assert.Equal(t, 120, got.TextChars)
	assert.Equal(t, session.Questions, got.Questions)
	assert.WithinDuration(t, session.CreatedAt, got.CreatedAt, time.Second)

	summary, err := store.GetSummary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.Summary, summary)

	questions, err := store.GetQuestions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.Questions, questions)
}

func TestSaveSessionReplacesQuestions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	session := sampleSession()
	id, err := store.SaveSession(ctx, session)
	require.NoError(t, err)

	session.Questions = session.Questions[:1]
	session.Downgraded = true
	_, err = store.SaveSession(ctx, session)
	require.NoError(t, err)

	got, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Questions, 1)
	assert.True(t, got.Downgraded)
}

func TestListSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	older := sampleSession()
	older.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.SaveSession(ctx, older)
	require.NoError(t, err)

	newer := &models.StudySession{
		Source:    models.SourceInfo{URL: "https://example.com/notes.txt"},
		Mode:      models.ModeOnline,
		Summary:   "Short.",
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err = store.SaveSession(ctx, newer)
	require.NoError(t, err)

	list, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, "https://example.com/notes.txt", list[0].Source)
	assert.Equal(t, 0, list[0].QuestionCount)
	assert.Equal(t, "notes/paris.pdf", list[1].Source)
	assert.Equal(t, 2, list[1].QuestionCount)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.SaveSession(ctx, sampleSession())
	require.NoError(t, err)

	require.NoError(t, store.DeleteSession(ctx, id))

	_, err = store.GetSession(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetQuestions(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteSession(ctx, id), ErrNotFound)

	var orphans int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM questions WHERE session_id = ?`, id).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestMissingSession(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetSummary(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	id, err := store.SaveSession(context.Background(), sampleSession())
	require.NoError(t, err)
	_, err = store.GetSession(context.Background(), id)
	require.NoError(t, err)
}

func TestCalculateResourcePaths(t *testing.T) {
	s := sampleSession()
	s.ID = "abc"
	assert.Equal(t, []string{"session://abc", "session://abc/summary", "session://abc/quiz"}, CalculateResourcePaths(s))

	s.Questions = nil
	assert.Equal(t, []string{"session://abc", "session://abc/summary"}, CalculateResourcePaths(s))
}
