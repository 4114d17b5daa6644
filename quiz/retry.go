package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/quizpilot/config"
	"github.com/use-agent/quizpilot/models"
)

// Locate polls for the selector with a strictly increasing timeout per
// attempt (attempt × base) and a short fixed pause between attempts. Only
// the last attempt's error is surfaced, wrapped in a descriptive
// ELEMENT_NOT_FOUND failure. Cancelling ctx aborts both the in-flight wait
// and the inter-attempt pause.
func Locate(ctx context.Context, d Driver, selector string, cfg config.LoopConfig) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.LocateAttempts; attempt++ {
		timeout := time.Duration(attempt) * cfg.ElementTimeout
		if err := d.WaitVisible(ctx, selector, timeout); err == nil {
			if attempt > 1 {
				slog.Debug("element located after retry", "selector", selector, "attempt", attempt)
			}
			return nil
		} else {
			lastErr = err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < cfg.LocateAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.RetryPause):
			}
		}
	}
	return models.NewQuizError(models.ErrCodeNotFound,
		fmt.Sprintf("element %s not found after %d attempts", selector, cfg.LocateAttempts), lastErr)
}
