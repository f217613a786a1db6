package summarize

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epistemic-Technology/studysage/internal/llm"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/models"
)

type stubBackend struct {
	name   string
	chunks []string
	fail   error
	out    func(chunk string) string
}

func (b *stubBackend) Summarize(ctx context.Context, chunk string, minLength, maxLength int) (string, error) {
	b.chunks = append(b.chunks, chunk)
	if b.fail != nil {
		return "", b.fail
	}
	if b.out != nil {
		return b.out(chunk), nil
	}
	return b.name, nil
}

func words(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("word")
		if i%10 == 9 {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func newService(local, remote *stubBackend, opts ...Option) (*Service, *string) {
	var key string
	factory := func(apiKey string) Backend {
		key = apiKey
		return remote
	}
	return NewService(local, factory, logger.NewNoOpLogger(), opts...), &key
}

func TestSummarizeOfflineSingleChunk(t *testing.T) {
	local := &stubBackend{name: "local summary"}
	remote := &stubBackend{name: "remote"}
	svc, _ := newService(local, remote)

	res, err := svc.SummarizeDetailed(context.Background(), "A short text. It has two sentences.", 30, 200,
		models.ModeConfig{Mode: models.ModeOffline})
	require.NoError(t, err)
	assert.Equal(t, "local summary", res.Summary)
	assert.Equal(t, models.ModeOffline, res.Mode)
	assert.False(t, res.Downgraded)
	assert.Equal(t, 1, res.Chunks)
	assert.Empty(t, remote.chunks)
}

func TestSummarizeOnlineUsesCallKey(t *testing.T) {
	local := &stubBackend{name: "local"}
	remote := &stubBackend{name: "remote summary"}
	svc, key := newService(local, remote)

	got, err := svc.Summarize(context.Background(), words(100), 30, 200,
		models.ModeConfig{Mode: models.ModeOnline, APIKey: "hf_abc"})
	require.NoError(t, err)
	assert.Equal(t, "remote summary", got)
	assert.Equal(t, "hf_abc", *key)
	assert.Empty(t, local.chunks)
}

func TestSummarizeDowngradesLargeOnlineInput(t *testing.T) {
	local := &stubBackend{name: "local"}
	remote := &stubBackend{name: "remote"}
	var stages []string
	svc, _ := newService(local, remote, WithProgress(func(stage string, step, total int) {
		stages = append(stages, stage)
	}))

	res, err := svc.SummarizeDetailed(context.Background(), words(1200), 30, 200,
		models.ModeConfig{Mode: models.ModeOnline, APIKey: "hf_abc"})
	require.NoError(t, err)
	assert.True(t, res.Downgraded)
	assert.Equal(t, models.ModeOffline, res.Mode)
	assert.Empty(t, remote.chunks)
	assert.Len(t, local.chunks, 2)
	assert.Equal(t, "local local", res.Summary)
	assert.Contains(t, stages, DowngradeStage)
}

func TestSummarizeDowngradeByChars(t *testing.T) {
	local := &stubBackend{name: "local"}
	svc, _ := newService(local, &stubBackend{})

	// few words but many characters
	text := strings.Repeat(strings.Repeat("a", 99)+" ", 45)
	res, err := svc.SummarizeDetailed(context.Background(), text, 30, 200,
		models.ModeConfig{Mode: models.ModeOnline, APIKey: "k"})
	require.NoError(t, err)
	assert.True(t, res.Downgraded)
}

func TestSummarizeDowngradeDoesNotNeedKey(t *testing.T) {
	local := &stubBackend{name: "local"}
	svc, _ := newService(local, &stubBackend{})

	got, err := svc.Summarize(context.Background(), words(900), 30, 200,
		models.ModeConfig{Mode: models.ModeOnline})
	require.NoError(t, err)
	assert.Equal(t, "local local", got)
}

func TestSummarizeTooLargeOffline(t *testing.T) {
	local := &stubBackend{name: "local"}
	svc, _ := newService(local, &stubBackend{})

	_, err := svc.Summarize(context.Background(), words(20001), 30, 200,
		models.ModeConfig{Mode: models.ModeOffline})
	require.ErrorIs(t, err, ErrTextTooLarge)
	assert.Empty(t, local.chunks)

	_, err = svc.Summarize(context.Background(), words(20001), 30, 200,
		models.ModeConfig{Mode: models.ModeOnline, APIKey: "k"})
	require.ErrorIs(t, err, ErrTextTooLarge)
}

func TestSummarizeMissingCredentialMakesNoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`[{"summary_text":"x"}]`))
	}))
	defer srv.Close()

	factory := func(apiKey string) Backend {
		return llm.NewHuggingFaceClient(apiKey, llm.HuggingFaceConfig{BaseURL: srv.URL}, logger.NewNoOpLogger())
	}
	svc := NewService(&stubBackend{}, factory, logger.NewNoOpLogger())

	for _, key := range []string{"", "   "} {
		_, err := svc.Summarize(context.Background(), "Short text to summarize here.", 30, 200,
			models.ModeConfig{Mode: models.ModeOnline, APIKey: key})
		require.ErrorIs(t, err, ErrMissingCredential)
	}
	assert.EqualValues(t, 0, calls)
}

func TestSummarizeRemoteErrorsPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	factory := func(apiKey string) Backend {
		return llm.NewHuggingFaceClient(apiKey, llm.HuggingFaceConfig{BaseURL: srv.URL}, logger.NewNoOpLogger())
	}
	svc := NewService(&stubBackend{}, factory, logger.NewNoOpLogger())

	_, err := svc.Summarize(context.Background(), "Short text to summarize here.", 30, 200,
		models.ModeConfig{Mode: models.ModeOnline, APIKey: "k"})
	require.ErrorIs(t, err, ErrRemoteService)

	var rse *RemoteServiceError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, http.StatusTooManyRequests, rse.StatusCode)
}

func TestSummarizeChunkFailureFailsWhole(t *testing.T) {
	boom := errors.New("model crashed")
	local := &stubBackend{fail: boom}
	svc, _ := newService(local, &stubBackend{})

	_, err := svc.Summarize(context.Background(), words(1700), 30, 200,
		models.ModeConfig{Mode: models.ModeOffline})
	require.ErrorIs(t, err, boom)
	assert.Len(t, local.chunks, 1)
}

func TestSummarizeJoinsInOrder(t *testing.T) {
	n := 0
	local := &stubBackend{}
	local.out = func(string) string {
		n++
		return strings.Repeat("s", n)
	}
	svc, _ := newService(local, &stubBackend{}, WithLimits(Limits{
		OnlineMaxWords: 10, OnlineMaxChars: 100, OfflineMaxWords: 1000, OfflineMaxChars: 10000,
		OnlineChunkSize: 5, OfflineChunkSize: 10,
	}))

	got, err := svc.Summarize(context.Background(), words(30), 1, 5, models.ModeConfig{Mode: models.ModeOffline})
	require.NoError(t, err)
	assert.Equal(t, "s ss sss", got)
}

func TestSummarizeDefaultsToOfflineAndRejectsUnknownMode(t *testing.T) {
	local := &stubBackend{name: "local"}
	svc, _ := newService(local, &stubBackend{})

	got, err := svc.Summarize(context.Background(), "Some text.", 30, 200, models.ModeConfig{})
	require.NoError(t, err)
	assert.Equal(t, "local", got)

	_, err = svc.Summarize(context.Background(), "Some text.", 30, 200, models.ModeConfig{Mode: "hybrid"})
	assert.Error(t, err)
}

func TestSummarizeEmptyRemoteSummaryFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"summary_text":""}]`))
	}))
	defer srv.Close()

	factory := func(apiKey string) Backend {
		return llm.NewHuggingFaceClient(apiKey, llm.HuggingFaceConfig{BaseURL: srv.URL}, logger.NewNoOpLogger())
	}
	svc := NewService(&stubBackend{}, factory, logger.NewNoOpLogger())

	got, err := svc.Summarize(context.Background(), "Paris is the capital of France. It lies on the Seine.", 30, 200,
		models.ModeConfig{Mode: models.ModeOnline, APIKey: "k"})
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.Empty(t, got)
}

func TestSummarizeBlankTextMakesNoCall(t *testing.T) {
	local := &stubBackend{name: "local"}
	remote := &stubBackend{name: "remote"}
	svc, _ := newService(local, remote)

	for _, text := range []string{"", "  \n\t "} {
		for _, mode := range []models.Mode{models.ModeOffline, models.ModeOnline} {
			_, err := svc.Summarize(context.Background(), text, 30, 200, models.ModeConfig{Mode: mode, APIKey: "k"})
			require.ErrorIs(t, err, ErrEmptyText)
		}
	}
	assert.Empty(t, local.chunks)
	assert.Empty(t, remote.chunks)
}
