package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/quizpilot/ai"
	"github.com/use-agent/quizpilot/api"
	"github.com/use-agent/quizpilot/browser"
	"github.com/use-agent/quizpilot/cache"
	"github.com/use-agent/quizpilot/config"
	"github.com/use-agent/quizpilot/models"
	"github.com/use-agent/quizpilot/quiz"
	"github.com/use-agent/quizpilot/webhook"
)

func main() {
	// ── 1. Load and validate configuration ──────────────────────────
	cfg := config.Load()
	initLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	os.Exit(run(cfg))
}

// run owns the whole quiz run so the deferred session close executes on
// every exit path. Returns the process exit code: 0 for a clean finish
// (including a termination signal), 1 for any fatal error.
func run(cfg *config.Config) int {
	slog.Info("quizpilot starting",
		"url", cfg.Quiz.TargetURL,
		"layout", cfg.Quiz.Layout,
		"backend", cfg.AI.Backend,
		"timeoutPolicy", cfg.Loop.TimeoutPolicy,
	)

	// ── 2. Selector layout ──────────────────────────────────────────
	sel, err := quiz.Layout(cfg.Quiz.Layout)
	if err != nil {
		slog.Error("selector layout rejected", "layout", cfg.Quiz.Layout, "error", err)
		return 1
	}

	// ── 3. Run tracking + optional status server ────────────────────
	stats := &models.RunStats{}
	tracker := api.NewTracker(stats)

	if cfg.Status.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Status.Host, cfg.Status.Port)
		router := api.NewRouter(tracker, cfg.Status.Mode)
		go func() {
			slog.Info("status server listening", "addr", addr)
			if serveErr := http.ListenAndServe(addr, router); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				slog.Error("status server error", "error", serveErr)
			}
		}()
	}

	// ── 4. Run-event notifier ───────────────────────────────────────
	runID := time.Now().UTC().Format("20060102-150405")
	var notify quiz.Notifier
	if n := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret, runID); n != nil {
		notify = n
		n.Emit(webhook.EventRunStarted, map[string]string{"url": cfg.Quiz.TargetURL})
	}

	// ── 5. Inference client ─────────────────────────────────────────
	answerer := ai.New(cfg.AI)

	// ── 6. Browser session ──────────────────────────────────────────
	sess, err := browser.NewSession(cfg.Browser)
	if err != nil {
		slog.Error("failed to start browser session", "error", err)
		return 1
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			slog.Error("browser close failed", "error", closeErr)
		}
	}()

	// ── 7. Signal handling ──────────────────────────────────────────
	// SIGINT/SIGTERM cancel the context; the loop sees the cancellation
	// and unwinds through the deferred close. The user closing the quiz
	// window is handled inside the session itself.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 8. Navigate + login ─────────────────────────────────────────
	tracker.SetState(api.StateLoggingIn)
	if err := sess.Navigate(ctx, cfg.Quiz.TargetURL); err != nil {
		if errors.Is(err, context.Canceled) {
			return signalExit(tracker, stats)
		}
		return fail(tracker, notify, "navigation failed", err)
	}

	creds := models.Credentials{Email: cfg.Quiz.Email, Pin: cfg.Quiz.Pin}
	if err := quiz.Login(ctx, sess, sel, creds, cfg.Loop); err != nil {
		if errors.Is(err, context.Canceled) {
			return signalExit(tracker, stats)
		}
		return fail(tracker, notify, "login failed", err)
	}

	// ── 9. Question/answer loop ─────────────────────────────────────
	var memo *cache.Cache
	if cfg.Loop.CacheEntries > 0 {
		memo = cache.New(cfg.Loop.CacheEntries)
	}
	loop := quiz.NewLoop(sess, answerer, sel, cfg.Loop, stats, memo, notify)

	if err := loop.AwaitStart(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return signalExit(tracker, stats)
		}
		return fail(tracker, notify, "quiz never started", err)
	}

	tracker.SetState(api.StateRunning)
	if err := loop.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return signalExit(tracker, stats)
		}
		return fail(tracker, notify, "quiz loop failed", err)
	}

	// ── 10. Clean finish ────────────────────────────────────────────
	tracker.SetState(api.StateFinished)
	if notify != nil {
		notify.Emit(webhook.EventRunCompleted, stats.Snapshot())
	}
	slog.Info("quizpilot finished",
		"answered", stats.Answered.Load(),
		"skipped", stats.Skipped.Load(),
		"reloads", stats.Reloads.Load(),
	)
	return 0
}

// signalExit handles a termination signal observed anywhere in the run:
// the deferred session close releases the browser and the process exits 0.
func signalExit(tracker *api.Tracker, stats *models.RunStats) int {
	slog.Info("termination signal received, shutting down",
		"answered", stats.Answered.Load(), "skipped", stats.Skipped.Load())
	tracker.SetState(api.StateFinished)
	return 0
}

// fail records a fatal run error on every surface and returns exit code 1.
func fail(tracker *api.Tracker, notify quiz.Notifier, msg string, err error) int {
	slog.Error(msg, "error", err)
	tracker.SetState(api.StateFailed)
	if notify != nil {
		notify.Emit(webhook.EventRunFailed, map[string]string{
			"message": msg,
			"code":    models.ErrorCode(err),
		})
	}
	return 1
}

// initLogger configures slog from the verbosity and format settings.
// "all" surfaces DOM-level debug, "ai" keeps the AI interaction log,
// "silent" reports errors only.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Verbosity {
	case config.VerbosityAI:
		level = slog.LevelInfo
	case config.VerbositySilent:
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
