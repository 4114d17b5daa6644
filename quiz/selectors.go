package quiz

import (
	"fmt"

	"github.com/andybalholm/cascadia"

	"github.com/use-agent/quizpilot/models"
)

// Selectors is one site layout's element map. The question/answer state
// machine only ever goes through this table; supporting a new portal layout
// means adding a layout here, not touching control logic.
//
// QuestionText and Option are resolved relative to the question container
// fragment; everything else is page-global.
type Selectors struct {
	Enter             string // login "Enter" control
	Email             string // login email input
	Pin               string // login pin input
	Start             string // quiz-start control shown after login
	QuestionContainer string // wrapper around one rendered question
	QuestionText      string // question text, inside the container
	Option            string // all option elements, inside the container, DOM order
	OptionAt          string // printf pattern with %d: clickable option at 1-based ordinal
	Submit            string // submit control for the selected option
}

// layouts are the supported portal layouts. The two differ in how options
// and the submit control are rendered (list vs. button panel).
var layouts = map[string]Selectors{
	"classic": {
		Enter:             "button.enter-btn",
		Email:             "input[name='email']",
		Pin:               "input[name='pin']",
		Start:             "button.start-quiz",
		QuestionContainer: "div.question-card",
		QuestionText:      "h2.question-text",
		Option:            "ul.answers li.answer-option",
		OptionAt:          "ul.answers li.answer-option:nth-child(%d)",
		Submit:            "button.submit-answer",
	},
	"panel": {
		Enter:             "#enter",
		Email:             "#login-email",
		Pin:               "#login-pin",
		Start:             "#start",
		QuestionContainer: "section.quiz-panel",
		QuestionText:      "p.prompt",
		Option:            "div.choices button.choice",
		OptionAt:          "div.choices button.choice:nth-of-type(%d)",
		Submit:            "footer button[type='submit']",
	},
}

// Layout returns the validated selector set for the named layout.
func Layout(name string) (Selectors, error) {
	sel, ok := layouts[name]
	if !ok {
		return Selectors{}, models.NewQuizError(models.ErrCodeConfig,
			fmt.Sprintf("unknown selector layout %q", name), nil)
	}
	if err := sel.Validate(); err != nil {
		return Selectors{}, err
	}
	return sel, nil
}

// OptionSelector resolves the clickable element for a 1-based ordinal.
func (s Selectors) OptionSelector(n int) string {
	return fmt.Sprintf(s.OptionAt, n)
}

// Validate parses every selector so a broken layout fails at startup, not
// mid-quiz.
func (s Selectors) Validate() error {
	checks := map[string]string{
		"enter":              s.Enter,
		"email":              s.Email,
		"pin":                s.Pin,
		"start":              s.Start,
		"question container": s.QuestionContainer,
		"question text":      s.QuestionText,
		"option":             s.Option,
		"option ordinal":     s.OptionSelector(1),
		"submit":             s.Submit,
	}
	for name, selector := range checks {
		if selector == "" {
			return models.NewQuizError(models.ErrCodeConfig,
				fmt.Sprintf("selector layout is missing the %s selector", name), nil)
		}
		if _, err := cascadia.Parse(selector); err != nil {
			return models.NewQuizError(models.ErrCodeConfig,
				fmt.Sprintf("invalid %s selector %q", name, selector), err)
		}
	}
	return nil
}
