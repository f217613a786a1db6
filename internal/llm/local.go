package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/tidwall/gjson"

	"github.com/Epistemic-Technology/studysage/internal/logger"
)

const (
	DefaultLocalHost    = "http://localhost:11434"
	DefaultLocalModel   = "llama3.2:1b"
	DefaultLocalTimeout = 5 * time.Minute
)

// LocalConfig configures a LocalModel.
type LocalConfig struct {
	// Host is the base URL of an Ollama compatible server.
	Host      string
	Model     string
	ModelsDir string
	Timeout   time.Duration
}

// LocalModel summarizes with a model served on the local machine. The model
// is pulled on first use; a marker file in ModelsDir records that the pull
// finished so later processes skip it.
type LocalModel struct {
	client    openai.Client
	http      *http.Client
	host      string
	model     string
	modelsDir string
	log       logger.Logger

	mu    sync.Mutex
	ready bool
}

func NewLocalModel(cfg LocalConfig, log logger.Logger) *LocalModel {
	if cfg.Host == "" {
		cfg.Host = DefaultLocalHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLocalModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLocalTimeout
	}
	host := strings.TrimRight(cfg.Host, "/")
	client := openai.NewClient(
		option.WithBaseURL(host+"/v1/"),
		option.WithAPIKey("ollama"),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	)
	return &LocalModel{
		client:    client,
		http:      &http.Client{Timeout: cfg.Timeout},
		host:      host,
		model:     cfg.Model,
		modelsDir: cfg.ModelsDir,
		log:       log,
	}
}

// Model returns the configured model name.
func (m *LocalModel) Model() string { return m.model }

func (m *LocalModel) markerPath() string {
	if m.modelsDir == "" {
		return ""
	}
	name := strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(m.model)
	return filepath.Join(m.modelsDir, name+".ready")
}

// EnsureModel pulls the model unless it is already known to be present.
// Pulling an existing model is a no-op on the server, so a lost marker only
// costs one extra request.
func (m *LocalModel) EnsureModel(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}
	marker := m.markerPath()
	if marker != "" {
		if _, err := os.Stat(marker); err == nil {
			m.ready = true
			return nil
		}
	}

	m.log.Info("Pulling local model %s (first use)", m.model)
	if err := m.pull(ctx); err != nil {
		return err
	}

	if marker != "" {
		if err := os.MkdirAll(filepath.Dir(marker), 0755); err != nil {
			return fmt.Errorf("failed to create models directory: %w", err)
		}
		stamp := []byte(time.Now().UTC().Format(time.RFC3339) + "\n")
		if err := os.WriteFile(marker, stamp, 0644); err != nil {
			return fmt.Errorf("failed to write model marker: %w", err)
		}
	}
	m.ready = true
	return nil
}

func (m *LocalModel) pull(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{"model": m.model, "stream": false})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.host+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", m.model, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read pull response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return newRemoteServiceError(resp.StatusCode, string(data))
	}
	if msg := gjson.GetBytes(data, "error"); msg.Exists() {
		return fmt.Errorf("failed to pull model %s: %s", m.model, msg.String())
	}
	if status := gjson.GetBytes(data, "status").String(); status != "" && status != "success" {
		return fmt.Errorf("pulling model %s ended with status %q", m.model, status)
	}
	return nil
}

// Summarize runs deterministic generation over one chunk.
func (m *LocalModel) Summarize(ctx context.Context, chunk string, minLength, maxLength int) (string, error) {
	if err := m.EnsureModel(ctx); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Summarize the following text in roughly %d to %d words.
Write plain prose in the same language as the text. Reply with the summary only.

Text:
%s`, minLength, maxLength, chunk)

	m.log.Debug("Calling local model %s with %d chars", m.model, len(chunk))
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a careful summarization model for study notes."),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
		Seed:        openai.Int(0),
		MaxTokens:   openai.Int(int64(maxLength) * 2),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", newRemoteServiceError(apiErr.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("local model call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", &MalformedResponseError{Reason: "no choices in local model response"}
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", &MalformedResponseError{Reason: "empty local model response"}
	}
	return out, nil
}
