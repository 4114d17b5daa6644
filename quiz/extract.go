package quiz

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/quizpilot/models"
)

// ParseQuestion narrows the rendered page HTML to the question container
// and scrapes the question text plus the option texts in DOM order. That
// order defines each option's 1-based ordinal for answer mapping.
func ParseQuestion(rawHTML string, sel Selectors) (*models.Question, error) {
	fragment, err := narrowToContainer(rawHTML, sel.QuestionContainer)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, models.NewQuizError(models.ErrCodeInternal, "failed to parse question container", err)
	}

	text := strings.TrimSpace(doc.Find(sel.QuestionText).First().Text())
	if text == "" {
		return nil, models.NewQuizError(models.ErrCodeNotFound,
			"question container has no text matching "+sel.QuestionText, nil)
	}

	var options []string
	doc.Find(sel.Option).Each(func(_ int, s *goquery.Selection) {
		if opt := strings.TrimSpace(s.Text()); opt != "" {
			options = append(options, opt)
		}
	})
	if len(options) == 0 {
		return nil, models.NewQuizError(models.ErrCodeNoOptions,
			"no options present for question: "+text, nil)
	}

	return &models.Question{Text: text, Options: options}, nil
}

// narrowToContainer returns the outer HTML of the first element matching
// the container selector. Unlike a generic content pipeline there is no
// fall-back to the whole page: a missing container means the page is not
// showing a question.
func narrowToContainer(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", models.NewQuizError(models.ErrCodeConfig, "invalid container selector "+selector, err)
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", models.NewQuizError(models.ErrCodeInternal, "failed to parse page HTML", err)
	}

	node := cascadia.Query(doc, sel)
	if node == nil {
		return "", models.NewQuizError(models.ErrCodeNotFound,
			"no element matches container selector "+selector, nil)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", models.NewQuizError(models.ErrCodeInternal, "failed to render container HTML", err)
	}
	return buf.String(), nil
}
