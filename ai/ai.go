// Package ai provides the inference clients that turn a scraped quiz
// question into a 1-based answer ordinal.
package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/use-agent/quizpilot/config"
	"github.com/use-agent/quizpilot/models"
)

// Answerer is the single capability the quiz loop needs from an inference
// backend. Answer returns the chosen 1-based option ordinal, or ok=false
// when no usable answer could be obtained (network failure, backend error,
// or a reply that does not parse to an in-range integer). Implementations
// log their own failures and never propagate them to the caller.
type Answerer interface {
	Answer(ctx context.Context, q *models.Question) (choice int, ok bool)
}

// New builds the configured backend, wrapped in the request throttle.
// The backend selector has already been validated by config.Validate.
func New(cfg config.AIConfig) Answerer {
	var inner Answerer
	switch cfg.Backend {
	case config.BackendOpenAI:
		inner = NewOpenAIClient(cfg)
	default:
		inner = NewOllamaClient(cfg)
	}
	return Throttle(inner, cfg.RequestsPerSecond, cfg.Burst)
}

// BuildPrompt creates the deterministic user prompt: the question, the
// options enumerated 1..N, and an instruction demanding a bare integer.
func BuildPrompt(q *models.Question) string {
	var b strings.Builder
	b.WriteString(q.Text)
	b.WriteString("\n\nOptions:\n")
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
	}
	fmt.Fprintf(&b, "\nAnswer with ONLY the number of the correct option (1-%d). No explanation, no punctuation.", len(q.Options))
	return b.String()
}

// ParseChoice applies standard integer parsing to a trimmed backend reply.
// Replies that are not a bare integer, or that fall outside [1, numOptions],
// are not usable; the caller must skip the question rather than guess.
func ParseChoice(reply string, numOptions int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		return 0, false
	}
	if n < 1 || n > numOptions {
		return 0, false
	}
	return n, true
}
