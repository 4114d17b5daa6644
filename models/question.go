package models

import "strings"

// Question is one scraped quiz item: the question text and its options in
// DOM order. An option's 1-based position in Options is its ordinal, which
// is what an inference backend answers with.
type Question struct {
	Text    string
	Options []string
}

// Key returns a stable identity string for the question, used by the
// answer memo cache. Whitespace is normalised so a re-rendered question
// after a page reload still matches.
func (q *Question) Key() string {
	var b strings.Builder
	b.WriteString(strings.Join(strings.Fields(q.Text), " "))
	for _, opt := range q.Options {
		b.WriteString("|")
		b.WriteString(strings.Join(strings.Fields(opt), " "))
	}
	return b.String()
}

// ValidChoice reports whether n is a usable 1-based ordinal for this question.
func (q *Question) ValidChoice(n int) bool {
	return n >= 1 && n <= len(q.Options)
}
