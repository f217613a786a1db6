package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/studysage/internal/logger"
)

type fakeOllama struct {
	pulls       int32
	completions int32
	pullStatus  int
	content     string
}

func (f *fakeOllama) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.pulls, 1)
		if f.pullStatus != 0 {
			w.WriteHeader(f.pullStatus)
			_, _ = w.Write([]byte(`{"error":"no such model"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.completions, 1)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tiny-model", req["model"])
		assert.EqualValues(t, 0, req["temperature"])

		content := f.content
		if content == "" {
			content = "  Local summary.  "
		}
		body, err := json.Marshal(map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 0, "model": "tiny-model",
			"choices": []map[string]any{{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": content},
			}},
		})
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	return mux
}

func TestLocalModelPullsOnceAndSummarizes(t *testing.T) {
	fake := &fakeOllama{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	dir := t.TempDir()
	m := NewLocalModel(LocalConfig{Host: srv.URL, Model: "tiny-model", ModelsDir: dir}, logger.NewNoOpLogger())

	for i := 0; i < 2; i++ {
		got, err := m.Summarize(context.Background(), "Text to summarize.", 30, 200)
		require.NoError(t, err)
		assert.Equal(t, "Local summary.", got)
	}
	assert.EqualValues(t, 1, fake.pulls)
	assert.EqualValues(t, 2, fake.completions)

	_, err := os.Stat(filepath.Join(dir, "tiny-model.ready"))
	require.NoError(t, err)

	// a fresh process reuses the marker
	again := NewLocalModel(LocalConfig{Host: srv.URL, Model: "tiny-model", ModelsDir: dir}, logger.NewNoOpLogger())
	require.NoError(t, again.EnsureModel(context.Background()))
	assert.EqualValues(t, 1, fake.pulls)
}

func TestLocalModelPullFailure(t *testing.T) {
	fake := &fakeOllama{pullStatus: http.StatusNotFound}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	m := NewLocalModel(LocalConfig{Host: srv.URL, Model: "tiny-model", ModelsDir: t.TempDir()}, logger.NewNoOpLogger())
	_, err := m.Summarize(context.Background(), "text", 30, 200)
	require.ErrorIs(t, err, ErrRemoteService)
	assert.EqualValues(t, 0, fake.completions)
}

func TestLocalModelBlankResponse(t *testing.T) {
	fake := &fakeOllama{content: " \n\t "}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	m := NewLocalModel(LocalConfig{Host: srv.URL, Model: "tiny-model", ModelsDir: t.TempDir()}, logger.NewNoOpLogger())
	_, err := m.Summarize(context.Background(), "Text to summarize.", 30, 200)
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.EqualValues(t, 1, fake.completions)
}

func TestMarkerPathSanitizesModelName(t *testing.T) {
	m := NewLocalModel(LocalConfig{Model: "library/llama3.2:1b", ModelsDir: "/models"}, logger.NewNoOpLogger())
	assert.Equal(t, filepath.Join("/models", "library_llama3.2_1b.ready"), m.markerPath())

	m = NewLocalModel(LocalConfig{}, logger.NewNoOpLogger())
	assert.Equal(t, "", m.markerPath())
	assert.Equal(t, DefaultLocalModel, m.Model())
}
