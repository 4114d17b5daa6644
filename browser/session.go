// Package browser owns the single browser+page pair driven by the quiz
// loop: launch, navigation, bounded element interactions, console
// relaying, the user-close shutdown path and diagnostic screenshots.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/quizpilot/config"
	"github.com/use-agent/quizpilot/models"
)

// exit is swapped out in tests of the close watcher.
var exit = os.Exit

// Session is one browser instance with one driven page. The quiz loop owns
// it exclusively; the two event observers (console relay, close watcher)
// only read handle state.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     config.BrowserConfig

	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewSession launches the browser (visible unless configured otherwise),
// opens the page, installs the console relay and the user-close watcher.
func NewSession(cfg config.BrowserConfig) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewQuizError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewQuizError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		return nil, models.NewQuizError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}

	s := &Session{browser: b, page: page, cfg: cfg}

	// Stealth JS must be installed before any navigation to take effect.
	if cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": "en-US,en;q=0.9"}),
	}.Call(page)

	s.relayConsole()
	s.watchUserClose()

	return s, nil
}

// Navigate loads the target URL and waits for the DOM to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}
	return nil
}

// WaitVisible waits up to timeout for the selector to match a visible
// element. Cancelling ctx aborts the wait immediately.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return categorizeError(err, "element "+selector+" did not appear")
	}
	if err := el.WaitVisible(); err != nil {
		return categorizeError(err, "element "+selector+" did not become visible")
	}
	return nil
}

// Click waits for the selector and clicks it with the left mouse button.
func (s *Session) Click(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return categorizeError(err, "element "+selector+" did not appear")
	}
	if err := el.WaitVisible(); err != nil {
		return categorizeError(err, "element "+selector+" did not become visible")
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return models.NewQuizError(models.ErrCodeInteraction, "click on "+selector+" failed", err)
	}
	return nil
}

// Fill waits for the selector and types the value into it.
func (s *Session) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return categorizeError(err, "input "+selector+" did not appear")
	}
	if err := el.WaitVisible(); err != nil {
		return categorizeError(err, "input "+selector+" did not become visible")
	}
	if err := el.Input(value); err != nil {
		return models.NewQuizError(models.ErrCodeInteraction, "fill of "+selector+" failed", err)
	}
	return nil
}

// PageHTML returns the full rendered page HTML.
func (s *Session) PageHTML(ctx context.Context, timeout time.Duration) (string, error) {
	html, err := s.page.Context(ctx).Timeout(timeout).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return html, nil
}

// Reload reloads the page and waits for the DOM to settle.
func (s *Session) Reload(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return categorizeError(err, "page reload failed")
	}
	_ = p.Timeout(s.cfg.NavigationTimeout).WaitDOMStable(300*time.Millisecond, 0.1)
	return nil
}

// EchoConsole mirrors a message into the page's own console so errors are
// visible in-context while debugging against the live site. Best-effort.
func (s *Session) EchoConsole(msg string) {
	_, _ = s.page.Eval(`(m) => console.error("[quizpilot] " + m)`, msg)
}

// Screenshot captures the viewport to name inside the configured directory.
// Diagnostic side files only: failures are logged, never returned.
func (s *Session) Screenshot(name string) {
	img, err := s.page.Screenshot(false, nil)
	if err != nil {
		slog.Warn("screenshot capture failed", "name", name, "error", err)
		return
	}
	path := filepath.Join(s.cfg.ScreenshotDir, name)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		slog.Warn("screenshot write failed", "path", path, "error", err)
		return
	}
	slog.Debug("screenshot saved", "path", path)
}

// Close releases the browser. Safe to call from every exit path; the
// underlying close runs at most once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		slog.Info("closing browser")
		s.closeErr = s.browser.Close()
	})
	return s.closeErr
}

// relayConsole forwards every in-page console message to our own log
// stream, tagged with its severity type.
func (s *Session) relayConsole() {
	go s.page.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		msg := formatConsoleArgs(e.Args)
		switch e.Type {
		case proto.RuntimeConsoleAPICalledTypeError, proto.RuntimeConsoleAPICalledTypeAssert:
			slog.Error("page console", "type", string(e.Type), "msg", msg)
		case proto.RuntimeConsoleAPICalledTypeWarning:
			slog.Warn("page console", "type", string(e.Type), "msg", msg)
		default:
			slog.Debug("page console", "type", string(e.Type), "msg", msg)
		}
	})()
}

// watchUserClose terminates the process when the user closes the quiz
// window: exit 0 after a clean browser close, exit 1 if the close fails.
// This is the only cooperative shutdown path besides OS signals.
func (s *Session) watchUserClose() {
	targetID := s.page.TargetID
	go func() {
		s.browser.EachEvent(func(e *proto.TargetTargetDestroyed) bool {
			return e.TargetID == targetID
		})()

		// EachEvent also returns when we close the browser ourselves.
		if s.closing.Load() {
			return
		}

		slog.Info("quiz window closed by user, shutting down")
		if err := s.Close(); err != nil {
			slog.Error("failed to close browser after window close", "error", err)
			exit(1)
			return
		}
		exit(0)
	}()
}

// formatConsoleArgs renders console call arguments into one line.
func formatConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	out := ""
	for i, arg := range args {
		if i > 0 {
			out += " "
		}
		if arg.Value.Val() != nil {
			out += arg.Value.Str()
		} else {
			out += arg.Description
		}
	}
	return out
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw rod errors into typed QuizErrors so callers can
// tell bounded-wait timeouts from genuine interaction failures.
func categorizeError(err error, msg string) *models.QuizError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewQuizError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewQuizError(models.ErrCodeTimeout, msg+" (canceled)", err)
	default:
		return models.NewQuizError(models.ErrCodeInteraction, msg, err)
	}
}
