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

const systemPrompt = "You answer multiple-choice quiz questions. Reply with a single integer, the number of the correct option, and nothing else."

// OpenAIClient answers questions through an OpenAI-compatible chat
// completion endpoint (OpenAI, LM Studio, vLLM, etc.).
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	httpClient  *http.Client
}

// Compile-time check: *OpenAIClient satisfies the Answerer interface.
var _ Answerer = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for the configured chat endpoint.
func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	return &OpenAIClient{
		baseURL:     strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		apiKey:      cfg.OpenAIKey,
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.RequestTimeout,
		httpClient:  &http.Client{},
	}
}

// chatRequest is the chat completion request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the minimal chat completion response we need. The error
// field covers providers that return failures in a 200 body.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Answer implements Answerer. Transport and backend failures are logged
// and reported as "no usable answer", never raised.
func (c *OpenAIClient) Answer(ctx context.Context, q *models.Question) (int, bool) {
	reply, err := c.complete(ctx, BuildPrompt(q))
	if err != nil {
		slog.Error("openai inference failed", "error", err)
		return 0, false
	}

	choice, ok := ParseChoice(reply, len(q.Options))
	slog.Info("openai reply", "model", c.model, "reply", strings.TrimSpace(reply), "choice", choice, "usable", ok)
	return choice, ok
}

// complete sends one chat completion request and returns the raw reply text.
func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	bodyBytes, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewQuizError(models.ErrCodeAIFailure, "chat request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewQuizError(models.ErrCodeAIFailure, "failed to read chat response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyChatError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewQuizError(models.ErrCodeAIFailure, "failed to parse chat response", err)
	}
	if chatResp.Error != nil {
		return "", models.NewQuizError(models.ErrCodeAIFailure, "backend reported: "+chatResp.Error.Message, nil)
	}
	if len(chatResp.Choices) == 0 {
		return "", models.NewQuizError(models.ErrCodeAIFailure, "backend returned no choices", nil)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// classifyChatError maps HTTP status codes to appropriate error codes.
func classifyChatError(statusCode int, body []byte) *models.QuizError {
	var errResp chatResponse
	msg := "chat API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewQuizError(models.ErrCodeAIAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewQuizError(models.ErrCodeAIRateLimited, msg, nil)
	default:
		return models.NewQuizError(models.ErrCodeAIFailure, fmt.Sprintf("chat API returned %d: %s", statusCode, msg), nil)
	}
}
