package quiz

import (
	"context"
	"time"

	"github.com/use-agent/quizpilot/config"
	"github.com/use-agent/quizpilot/models"
)

// call records one driver invocation for order assertions.
type call struct {
	op       string // "wait", "click", "fill", "html", "reload"
	selector string
	value    string
}

// fakeDriver is a scriptable Driver. Each hook may be nil, in which case
// the operation succeeds with a canned result. With blockUntilCancel set,
// WaitVisible blocks until ctx is canceled and reports the cancellation
// the way browser.Session does.
type fakeDriver struct {
	calls       []call
	waitTimeout []time.Duration

	onWaitVisible func(selector string, n int) error // n = 1-based call count for this op
	onClick       func(selector string) error
	onFill        func(selector, value string) error
	onPageHTML    func() (string, error)
	onReload      func() error

	blockUntilCancel bool

	waitCalls   int
	screenshots []string
	echoes      []string
}

func (f *fakeDriver) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	f.waitCalls++
	f.calls = append(f.calls, call{op: "wait", selector: selector})
	f.waitTimeout = append(f.waitTimeout, timeout)
	if f.blockUntilCancel {
		<-ctx.Done()
		return models.NewQuizError(models.ErrCodeTimeout, "element "+selector+" wait aborted", ctx.Err())
	}
	if f.onWaitVisible != nil {
		return f.onWaitVisible(selector, f.waitCalls)
	}
	return nil
}

func (f *fakeDriver) Click(ctx context.Context, selector string, timeout time.Duration) error {
	f.calls = append(f.calls, call{op: "click", selector: selector})
	if f.onClick != nil {
		return f.onClick(selector)
	}
	return nil
}

func (f *fakeDriver) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	f.calls = append(f.calls, call{op: "fill", selector: selector, value: value})
	if f.onFill != nil {
		return f.onFill(selector, value)
	}
	return nil
}

func (f *fakeDriver) PageHTML(ctx context.Context, timeout time.Duration) (string, error) {
	f.calls = append(f.calls, call{op: "html"})
	if f.onPageHTML != nil {
		return f.onPageHTML()
	}
	return capitalPageHTML, nil
}

func (f *fakeDriver) Reload(ctx context.Context) error {
	f.calls = append(f.calls, call{op: "reload"})
	if f.onReload != nil {
		return f.onReload()
	}
	return nil
}

func (f *fakeDriver) EchoConsole(msg string) { f.echoes = append(f.echoes, msg) }
func (f *fakeDriver) Screenshot(name string) { f.screenshots = append(f.screenshots, name) }

// opsOf filters the recorded calls down to the named op.
func (f *fakeDriver) opsOf(op string) []call {
	var out []call
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

// fakeAnswerer returns a scripted choice and counts invocations.
type fakeAnswerer struct {
	choice int
	ok     bool
	calls  int
}

func (f *fakeAnswerer) Answer(ctx context.Context, q *models.Question) (int, bool) {
	f.calls++
	return f.choice, f.ok
}

// fakeNotifier records the event types the loop emits.
type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Emit(eventType string, data interface{}) {
	f.events = append(f.events, eventType)
}

// timeoutErr mimics what browser.Session returns for a bounded-wait miss.
func timeoutErr(selector string) error {
	return models.NewQuizError(models.ErrCodeTimeout, "element "+selector+" did not appear", context.DeadlineExceeded)
}

// testLoopConfig keeps loop tests fast: no pauses, single locate attempt.
func testLoopConfig() config.LoopConfig {
	return config.LoopConfig{
		ElementTimeout: time.Millisecond,
		LocateAttempts: 1,
		RetryPause:     0,
		StartTimeout:   time.Millisecond,
		SettleDelay:    0,
		LoginSettle:    0,
		TimeoutPolicy:  config.PolicyFinish,
		MaxReloads:     3,
	}
}

// classicSel is the layout used by the fixtures below.
var classicSel = layouts["classic"]

// capitalPageHTML is a rendered "classic" layout page with one question.
const capitalPageHTML = `<!DOCTYPE html>
<html><body>
<header><h1>Friday Night Quiz</h1></header>
<div class="question-card">
  <h2 class="question-text">What is the capital of France?</h2>
  <ul class="answers">
    <li class="answer-option">London</li>
    <li class="answer-option">Paris</li>
    <li class="answer-option">Berlin</li>
    <li class="answer-option">Madrid</li>
  </ul>
  <button class="submit-answer">Submit</button>
</div>
</body></html>`
