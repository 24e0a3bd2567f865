package ai

import "context"

// Span is the result of an extractive question-answering call.
type Span struct {
	Text  string `json:"answer"`
	Found bool   `json:"found"`
}

// Generator produces free-form text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Answerer selects an answer span for question out of passage.
type Answerer interface {
	Answer(ctx context.Context, question, passage string) (Span, error)
}

// Noop is used when no model is configured. Its output always trips the
// summary fallback and never finds an answer.
type Noop struct{}

func (Noop) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return "", nil
}

func (Noop) Answer(ctx context.Context, question, passage string) (Span, error) {
	return Span{}, nil
}
