package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/use-agent/quizpilot/models"
)

var testCreds = models.Credentials{Email: "student@example.com", Pin: "4242"}

func TestLogin_SequenceAndOrder(t *testing.T) {
	d := &fakeDriver{}

	if err := Login(context.Background(), d, classicSel, testCreds, testLoopConfig()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	want := []call{
		{op: "click", selector: classicSel.Enter},
		{op: "fill", selector: classicSel.Email, value: "student@example.com"},
		{op: "fill", selector: classicSel.Pin, value: "4242"},
		{op: "click", selector: classicSel.Enter},
	}
	got := d.calls
	if len(got) != len(want) {
		t.Fatalf("recorded %d driver calls, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %+v, want %+v", i+1, got[i], want[i])
		}
	}
}

func TestLogin_FailureStopsSequence(t *testing.T) {
	stepErr := timeoutErr(classicSel.Email)
	d := &fakeDriver{
		onFill: func(selector, value string) error {
			if selector == classicSel.Email {
				return stepErr
			}
			return nil
		},
	}

	err := Login(context.Background(), d, classicSel, testCreds, testLoopConfig())
	if !errors.Is(err, stepErr) {
		t.Fatalf("Login error = %v, want the step's own error re-raised", err)
	}

	// One click (enter), one fill (email) — nothing after the failure.
	if n := len(d.calls); n != 2 {
		t.Errorf("driver saw %d calls after failing step, want 2: %+v", n, d.calls)
	}
	if len(d.opsOf("fill")) != 1 {
		t.Errorf("pin fill executed after email failure: %+v", d.calls)
	}
}

func TestLogin_FirstStepFailure(t *testing.T) {
	stepErr := timeoutErr(classicSel.Enter)
	d := &fakeDriver{
		onClick: func(selector string) error { return stepErr },
	}

	if err := Login(context.Background(), d, classicSel, testCreds, testLoopConfig()); !errors.Is(err, stepErr) {
		t.Fatalf("Login error = %v, want first step error", err)
	}
	if n := len(d.calls); n != 1 {
		t.Errorf("driver saw %d calls, want 1: %+v", n, d.calls)
	}
}
