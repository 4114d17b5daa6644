package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/quizpilot/models"
)

func TestLocate_SucceedsOnAttemptK(t *testing.T) {
	for k := 1; k <= 3; k++ {
		cfg := testLoopConfig()
		cfg.LocateAttempts = 3

		d := &fakeDriver{
			onWaitVisible: func(selector string, n int) error {
				if n < k {
					return timeoutErr(selector)
				}
				return nil
			},
		}

		if err := Locate(context.Background(), d, classicSel.QuestionContainer, cfg); err != nil {
			t.Fatalf("k=%d: Locate failed: %v", k, err)
		}
		if d.waitCalls != k {
			t.Errorf("k=%d: %d wait calls, want %d", k, d.waitCalls, k)
		}
	}
}

func TestLocate_TimeoutsGrowLinearly(t *testing.T) {
	cfg := testLoopConfig()
	cfg.LocateAttempts = 3
	cfg.ElementTimeout = 10 * time.Millisecond

	d := &fakeDriver{
		onWaitVisible: func(selector string, n int) error { return timeoutErr(selector) },
	}
	_ = Locate(context.Background(), d, classicSel.QuestionContainer, cfg)

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
	if len(d.waitTimeout) != len(want) {
		t.Fatalf("%d attempts recorded, want %d", len(d.waitTimeout), len(want))
	}
	for i, w := range want {
		if d.waitTimeout[i] != w {
			t.Errorf("attempt %d timeout = %v, want %v", i+1, d.waitTimeout[i], w)
		}
	}
}

func TestLocate_CancelStopsRetrying(t *testing.T) {
	cfg := testLoopConfig()
	cfg.LocateAttempts = 5
	cfg.RetryPause = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	d := &fakeDriver{
		onWaitVisible: func(selector string, n int) error {
			cancel() // the signal arrives while the element is still absent
			return timeoutErr(selector)
		},
	}

	start := time.Now()
	err := Locate(ctx, d, classicSel.QuestionContainer, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Locate error = %v, want the cancellation surfaced", err)
	}
	if d.waitCalls != 1 {
		t.Errorf("%d wait attempts after cancellation, want 1", d.waitCalls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Locate returned after %v, cancellation did not skip the retry pause", elapsed)
	}
}

func TestLocate_ExhaustedIsDescriptive(t *testing.T) {
	cfg := testLoopConfig()
	cfg.LocateAttempts = 3

	d := &fakeDriver{
		onWaitVisible: func(selector string, n int) error { return timeoutErr(selector) },
	}

	err := Locate(context.Background(), d, classicSel.QuestionContainer, cfg)
	if err == nil {
		t.Fatal("Locate succeeded with element absent through all attempts")
	}
	if models.ErrorCode(err) != models.ErrCodeNotFound {
		t.Errorf("error code = %s, want %s", models.ErrorCode(err), models.ErrCodeNotFound)
	}
	if !strings.Contains(err.Error(), classicSel.QuestionContainer) {
		t.Errorf("error %q does not name the selector", err)
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("error %q does not name the attempt count", err)
	}
}
