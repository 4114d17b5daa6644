package ai

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/use-agent/quizpilot/models"
)

// throttled decorates an Answerer with a token-bucket rate limit so a fast
// quiz never hammers the inference backend.
type throttled struct {
	inner   Answerer
	limiter *rate.Limiter
}

// Throttle wraps inner so calls block until the limiter grants a token.
// A non-positive rps disables throttling.
func Throttle(inner Answerer, rps float64, burst int) Answerer {
	if rps <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &throttled{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (t *throttled) Answer(ctx context.Context, q *models.Question) (int, bool) {
	if err := t.limiter.Wait(ctx); err != nil {
		slog.Warn("inference throttle wait aborted", "error", err)
		return 0, false
	}
	return t.inner.Answer(ctx, q)
}
