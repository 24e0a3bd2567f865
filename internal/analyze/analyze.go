// Package analyze turns extracted document text into summaries and answers
// using the model clients it is constructed with.
package analyze

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/thywilljoshua/docanalyzer/internal/ai"
)

// NoAnswer is returned when the QA model finds no span.
const NoAnswer = "No clear answer found."

var ErrEmptyQuestion = errors.New("question is empty")

type Options struct {
	// SummaryPrompt is the instruction placed before the document text.
	SummaryPrompt string
	// SummaryChars is how much of the raw text is sent for summarization.
	SummaryChars int
	// SummaryTokens bounds the generated summary.
	SummaryTokens int
	// MinSummaryChars and Denylist form the quality gate; a summary failing
	// it is replaced with FallbackSummary. Empty output always fails. A nil
	// Denylist gets the default phrases, an empty one disables the check.
	MinSummaryChars int
	Denylist        []string
	FallbackSummary string
	// AnswerChars is how much normalized text is given to the QA model.
	AnswerChars int
	// ModelTimeout bounds each model call. Zero means no limit.
	ModelTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		SummaryPrompt:   "Summarize the following content clearly:",
		SummaryChars:    3000,
		SummaryTokens:   120,
		MinSummaryChars: 40,
		Denylist:        []string{"summarize the following", "content clearly", "front range"},
		FallbackSummary: "This document could not be summarized reliably; please review the extracted text above.",
		AnswerChars:     4000,
		ModelTimeout:    60 * time.Second,
	}
}

func (o *Options) defaults() {
	d := DefaultOptions()
	if o.SummaryPrompt == "" {
		o.SummaryPrompt = d.SummaryPrompt
	}
	if o.SummaryChars <= 0 {
		o.SummaryChars = d.SummaryChars
	}
	if o.SummaryTokens <= 0 {
		o.SummaryTokens = d.SummaryTokens
	}
	if o.MinSummaryChars < 0 {
		o.MinSummaryChars = 0
	}
	if o.Denylist == nil {
		o.Denylist = d.Denylist
	}
	if o.FallbackSummary == "" {
		o.FallbackSummary = d.FallbackSummary
	}
	if o.AnswerChars <= 0 {
		o.AnswerChars = d.AnswerChars
	}
}

type Analyzer struct {
	gen    ai.Generator
	qa     ai.Answerer
	opts   Options
	logger *slog.Logger
}

// New wires the analyzer to already-loaded model clients. Nil clients are
// replaced by ai.Noop.
func New(gen ai.Generator, qa ai.Answerer, opts Options, logger *slog.Logger) *Analyzer {
	if gen == nil {
		gen = ai.Noop{}
	}
	if qa == nil {
		qa = ai.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts.defaults()
	return &Analyzer{gen: gen, qa: qa, opts: opts, logger: logger}
}

func (a *Analyzer) Options() Options { return a.opts }

func (a *Analyzer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.ModelTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.opts.ModelTimeout)
}
