// Package quiz implements the portal-specific flows: login sequencing and
// the question/answer loop. All DOM access goes through the Driver
// interface and the selector layouts, keeping the state machine itself
// selector-agnostic and testable without a browser.
package quiz

import (
	"context"
	"time"
)

// Driver is the page surface the quiz flows need. browser.Session is the
// production implementation; tests use fakes. Every bounded wait honors
// ctx cancellation, so a termination signal interrupts the wait instead
// of letting it run to its full timeout.
type Driver interface {
	// WaitVisible blocks until the selector matches a visible element,
	// the timeout elapses, or ctx is canceled.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Click waits for the selector and clicks it.
	Click(ctx context.Context, selector string, timeout time.Duration) error

	// Fill waits for the selector and types the value into it.
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error

	// PageHTML returns the full rendered page HTML.
	PageHTML(ctx context.Context, timeout time.Duration) (string, error)

	// Reload reloads the page.
	Reload(ctx context.Context) error

	// EchoConsole mirrors a message into the page's own console. Best-effort.
	EchoConsole(msg string)

	// Screenshot captures a diagnostic screenshot. Best-effort.
	Screenshot(name string)
}
