package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/use-agent/quizpilot/config"
	"github.com/use-agent/quizpilot/models"
)

// OllamaClient answers questions through a local Ollama generate endpoint.
// It uses net/http directly — no third-party SDK needed.
type OllamaClient struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// Compile-time check: *OllamaClient satisfies the Answerer interface.
var _ Answerer = (*OllamaClient)(nil)

// NewOllamaClient creates a client for the configured Ollama endpoint.
func NewOllamaClient(cfg config.AIConfig) *OllamaClient {
	return &OllamaClient{
		baseURL:    strings.TrimRight(cfg.OllamaURL, "/"),
		model:      cfg.OllamaModel,
		timeout:    cfg.RequestTimeout,
		httpClient: &http.Client{},
	}
}

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the minimal /api/generate response we need.
type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Answer implements Answerer. Transport and backend failures are logged
// and reported as "no usable answer", never raised.
func (c *OllamaClient) Answer(ctx context.Context, q *models.Question) (int, bool) {
	reply, err := c.generate(ctx, BuildPrompt(q))
	if err != nil {
		slog.Error("ollama inference failed", "error", err)
		return 0, false
	}

	choice, ok := ParseChoice(reply, len(q.Options))
	slog.Info("ollama reply", "model", c.model, "reply", strings.TrimSpace(reply), "choice", choice, "usable", ok)
	return choice, ok
}

// generate sends a single non-streaming generation request and returns the
// raw free-text reply.
func (c *OllamaClient) generate(ctx context.Context, prompt string) (string, error) {
	bodyBytes, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewQuizError(models.ErrCodeAIFailure, "ollama request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewQuizError(models.ErrCodeAIFailure, "failed to read ollama response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", models.NewQuizError(models.ErrCodeAIFailure,
			fmt.Sprintf("ollama returned %d: %s", resp.StatusCode, truncate(respBody, 200)), nil)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", models.NewQuizError(models.ErrCodeAIFailure, "failed to parse ollama response", err)
	}
	if genResp.Error != "" {
		return "", models.NewQuizError(models.ErrCodeAIFailure, "ollama reported: "+genResp.Error, nil)
	}

	return genResp.Response, nil
}

// truncate bounds response bodies quoted inside error messages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
