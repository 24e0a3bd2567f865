package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/thywilljoshua/docanalyzer/internal/extract"
)

type Route string

const (
	RouteSummary Route = "summary"
	RouteQA      Route = "qa"
)

type Answer struct {
	Text  string `json:"answer"`
	Route Route  `json:"route"`
	Found bool   `json:"found"`
}

// RouteFor sends "what is ..." and "... about ..." questions to the summary.
func RouteFor(question string) Route {
	q := strings.ToLower(question)
	if strings.Contains(q, "what is") || strings.Contains(q, "about") {
		return RouteSummary
	}
	return RouteQA
}

// Ask answers question against text, either with a summary or with the
// extractive QA model depending on RouteFor.
func (a *Analyzer) Ask(ctx context.Context, text, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}
	if RouteFor(question) == RouteSummary {
		s, err := a.Summarize(ctx, text)
		if err != nil {
			return Answer{}, err
		}
		return Answer{Text: s.Text, Route: RouteSummary, Found: !s.Fallback}, nil
	}
	return a.Answer(ctx, text, question)
}

// Answer always runs the QA model, whatever the question looks like.
func (a *Analyzer) Answer(ctx context.Context, text, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}
	passage := extract.Truncate(extract.Normalize(text), a.opts.AnswerChars)
	if passage == "" {
		return Answer{Text: NoAnswer, Route: RouteQA}, nil
	}

	mctx, cancel := a.withTimeout(ctx)
	defer cancel()
	span, err := a.qa.Answer(mctx, question, passage)
	if err != nil {
		return Answer{}, fmt.Errorf("answer: %w", err)
	}
	ans := strings.TrimSpace(span.Text)
	if !span.Found || ans == "" {
		a.logger.Debug("no answer span", "question", question)
		return Answer{Text: NoAnswer, Route: RouteQA}, nil
	}
	return Answer{Text: ans, Route: RouteQA, Found: true}, nil
}
