package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/Epistemic-Technology/studysage/internal/logger"
)

const (
	DefaultHuggingFaceURL = "https://api-inference.huggingface.co/models"
	DefaultRemoteModel    = "sshleifer/distilbart-cnn-12-6"
	DefaultRemoteTimeout  = 60 * time.Second
)

// HuggingFaceClient calls a hosted summarization model over the Inference API.
type HuggingFaceClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	log      logger.Logger
}

// HuggingFaceConfig configures a HuggingFaceClient. Zero values pick the defaults.
type HuggingFaceConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Limiter *rate.Limiter
}

func NewHuggingFaceClient(apiKey string, cfg HuggingFaceConfig, log logger.Logger) *HuggingFaceClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHuggingFaceURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultRemoteModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRemoteTimeout
	}
	return &HuggingFaceClient{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.Model,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  cfg.Limiter,
		log:      log,
	}
}

type summarizationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters summarizationOptions `json:"parameters"`
}

type summarizationOptions struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

// Summarize sends one chunk and returns the model's summary_text.
func (c *HuggingFaceClient) Summarize(ctx context.Context, chunk string, minLength, maxLength int) (string, error) {
	body, err := json.Marshal(summarizationRequest{
		Inputs:     chunk,
		Parameters: summarizationOptions{MaxLength: maxLength, MinLength: minLength, DoSample: false},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	return RateLimitedCall(ctx, c.limiter, c.log, func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		c.log.Debug("Calling summarization API %s with %d chars", c.endpoint, len(chunk))
		resp, err := c.http.Do(req)
		if err != nil {
			return "", fmt.Errorf("summarization request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", newRemoteServiceError(resp.StatusCode, string(data))
		}
		return parseSummary(data)
	})
}

// parseSummary expects [{"summary_text": "..."}].
func parseSummary(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", &MalformedResponseError{Reason: "response is not JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return "", &MalformedResponseError{Reason: "expected a list"}
	}
	first := root.Get("0")
	if !first.IsObject() {
		return "", &MalformedResponseError{Reason: "expected a non-empty list of objects"}
	}
	text := first.Get("summary_text")
	if text.Type != gjson.String {
		return "", &MalformedResponseError{Reason: "missing summary_text"}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", &MalformedResponseError{Reason: "empty summary_text"}
	}
	return out, nil
}
