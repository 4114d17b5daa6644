package quiz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/quizpilot/cache"
	"github.com/use-agent/quizpilot/config"
	"github.com/use-agent/quizpilot/models"
	"github.com/use-agent/quizpilot/webhook"
)

// Answerer is the inference contract the loop consumes (see the ai
// package). ok=false means "no usable answer": the question is skipped,
// never guessed.
type Answerer interface {
	Answer(ctx context.Context, q *models.Question) (choice int, ok bool)
}

// Notifier receives run events, typed with the webhook package's event
// constants. May be nil.
type Notifier interface {
	Emit(eventType string, data interface{})
}

// Loop drives the question/answer cycle:
//
//	WaitingForQuestion → Extracting → AwaitingAnswer → Submitting → back,
//
// exiting on NoMoreQuestions (clean) or UnrecoverableError (fatal). One
// logical thread of control: question N+1 is never extracted before
// question N is submitted or skipped.
type Loop struct {
	driver Driver
	ai     Answerer
	sel    Selectors
	cfg    config.LoopConfig
	memo   *cache.Cache // may be nil
	stats  *models.RunStats
	notify Notifier // may be nil
}

// NewLoop wires the loop. stats must be non-nil; memo and notify may be nil.
func NewLoop(d Driver, answerer Answerer, sel Selectors, cfg config.LoopConfig, stats *models.RunStats, memo *cache.Cache, notify Notifier) *Loop {
	return &Loop{
		driver: d,
		ai:     answerer,
		sel:    sel,
		cfg:    cfg,
		memo:   memo,
		stats:  stats,
		notify: notify,
	}
}

// AwaitStart waits for the quiz-start control to appear (long bound, the
// host decides when to begin) and clicks it. Cancelling ctx interrupts the
// wait; the cancellation is returned as-is so the caller can treat a
// termination signal as a clean shutdown rather than a failure.
func (l *Loop) AwaitStart(ctx context.Context) error {
	slog.Info("waiting for quiz start", "timeout", l.cfg.StartTimeout)
	if err := l.driver.WaitVisible(ctx, l.sel.Start, l.cfg.StartTimeout); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return l.fatal("quiz start control never appeared", err)
	}
	if err := l.driver.Click(ctx, l.sel.Start, l.cfg.ElementTimeout); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return l.fatal("failed to click quiz start control", err)
	}
	time.Sleep(l.cfg.SettleDelay)
	return nil
}

// Run executes the loop until no further questions are found or an
// unrecoverable error occurs. A nil return is a clean finish.
func (l *Loop) Run(ctx context.Context) error {
	reloads := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// ── WaitingForQuestion ──────────────────────────────────────
		if err := Locate(ctx, l.driver, l.sel.QuestionContainer, l.cfg); err != nil {
			// A canceled wait is a shutdown, not the quiz ending.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if l.cfg.TimeoutPolicy == config.PolicyReload && reloads < l.cfg.MaxReloads {
				reloads++
				l.stats.Reloads.Add(1)
				slog.Warn("question wait timed out, reloading page",
					"reload", reloads, "maxReloads", l.cfg.MaxReloads)
				if rerr := l.driver.Reload(ctx); rerr != nil {
					return l.fatal("page reload failed", rerr)
				}
				time.Sleep(l.cfg.SettleDelay)
				continue
			}

			// Terminal under both policies: either the first timeout
			// (finish) or the reload budget is exhausted (reload).
			slog.Info("no more questions, quiz finished",
				"answered", l.stats.Answered.Load(),
				"skipped", l.stats.Skipped.Load())
			l.driver.Screenshot("quizpilot-done.png")
			return nil
		}
		reloads = 0

		// ── Extracting ──────────────────────────────────────────────
		rawHTML, err := l.driver.PageHTML(ctx, l.cfg.ElementTimeout)
		if err != nil {
			return l.fatal("failed to read page HTML", err)
		}
		q, err := ParseQuestion(rawHTML, l.sel)
		if err != nil {
			return l.fatal("question extraction failed", err)
		}
		slog.Info("question extracted", "question", q.Text, "options", len(q.Options))

		// ── AwaitingAnswer ──────────────────────────────────────────
		choice, ok := l.answerFor(ctx, q)
		if !ok {
			l.stats.Skipped.Add(1)
			slog.Warn("no usable answer, skipping question", "question", q.Text)
			l.emit(webhook.EventQuestionSkipped, map[string]interface{}{"question": q.Text})
			// The portal advances questions on its own schedule; pause so
			// the skipped question is not immediately re-extracted hot.
			time.Sleep(l.cfg.SettleDelay)
			continue
		}
		slog.Info("answer selected", "question", q.Text, "choice", choice, "option", q.Options[choice-1])

		// ── Submitting ──────────────────────────────────────────────
		if err := l.driver.Click(ctx, l.sel.OptionSelector(choice), l.cfg.ElementTimeout); err != nil {
			return l.fatal("failed to click answer option", err)
		}
		if err := l.driver.Click(ctx, l.sel.Submit, l.cfg.ElementTimeout); err != nil {
			return l.fatal("failed to click submit control", err)
		}

		l.stats.Answered.Add(1)
		l.emit(webhook.EventQuestionAnswered, map[string]interface{}{
			"question": q.Text,
			"choice":   choice,
			"option":   q.Options[choice-1],
		})
		time.Sleep(l.cfg.SettleDelay)
	}
}

// answerFor consults the answer memo first, then the inference backend.
// Only usable answers are memoised.
func (l *Loop) answerFor(ctx context.Context, q *models.Question) (int, bool) {
	key := cache.Key(q.Key())
	if l.memo != nil {
		if choice, hit := l.memo.Get(key); hit && q.ValidChoice(choice) {
			slog.Debug("answer memo hit", "question", q.Text, "choice", choice)
			return choice, true
		}
	}

	choice, ok := l.ai.Answer(ctx, q)
	if ok && l.memo != nil {
		l.memo.Set(key, choice)
	}
	return choice, ok
}

// fatal logs the failure, echoes it into the page console, captures a
// diagnostic screenshot, and returns the error for the caller to
// terminate the run with.
func (l *Loop) fatal(msg string, err error) error {
	slog.Error(msg, "error", err)
	l.driver.EchoConsole(msg + ": " + err.Error())
	l.driver.Screenshot("quizpilot-error.png")
	var qe *models.QuizError
	if errors.As(err, &qe) {
		return err
	}
	return models.NewQuizError(models.ErrCodeInteraction, msg, err)
}

func (l *Loop) emit(eventType string, data interface{}) {
	if l.notify != nil {
		l.notify.Emit(eventType, data)
	}
}
