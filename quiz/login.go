package quiz

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/quizpilot/config"
	"github.com/use-agent/quizpilot/models"
)

// Login authenticates against the portal with a fixed, strictly sequential
// UI sequence: click Enter, fill email, fill pin, click Enter again, then a
// settle delay for server-side session establishment. There is no
// partial-success state: the first failing step is logged with context and
// its error is returned unmodified, aborting the run.
func Login(ctx context.Context, d Driver, sel Selectors, creds models.Credentials, cfg config.LoopConfig) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"click enter", func() error { return d.Click(ctx, sel.Enter, cfg.ElementTimeout) }},
		{"fill email", func() error { return d.Fill(ctx, sel.Email, creds.Email, cfg.ElementTimeout) }},
		{"fill pin", func() error { return d.Fill(ctx, sel.Pin, creds.Pin, cfg.ElementTimeout) }},
		{"confirm enter", func() error { return d.Click(ctx, sel.Enter, cfg.ElementTimeout) }},
	}

	for i, step := range steps {
		if err := step.run(); err != nil {
			slog.Error("login step failed", "step", i+1, "action", step.name, "error", err)
			return err
		}
		slog.Debug("login step complete", "step", i+1, "action", step.name)
	}

	// Settle delay, not an element wait: the portal establishes the session
	// server-side before it is safe to look for the start control.
	time.Sleep(cfg.LoginSettle)

	slog.Info("login complete", "email", creds.Email)
	d.Screenshot("quizpilot-login.png")
	return nil
}
