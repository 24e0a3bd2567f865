package analyze

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/thywilljoshua/docanalyzer/internal/ai"
)

type fakeGenerator struct {
	out     string
	err     error
	prompts []string
	tokens  int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.tokens = maxTokens
	return f.out, f.err
}

type fakeAnswerer struct {
	span      ai.Span
	err       error
	calls     int
	questions []string
	passages  []string
}

func (f *fakeAnswerer) Answer(ctx context.Context, question, passage string) (ai.Span, error) {
	f.calls++
	f.questions = append(f.questions, question)
	f.passages = append(f.passages, passage)
	return f.span, f.err
}

func newTestAnalyzer(gen ai.Generator, qa ai.Answerer) *Analyzer {
	return New(gen, qa, DefaultOptions(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// clean200 is a 200-character summary with no denylisted phrase.
var clean200 = strings.Repeat("The report covers quarterly revenue growth. ", 5)[:200]

func TestDegenerate(t *testing.T) {
	a := newTestAnalyzer(nil, nil)
	withPhrase := ("Worked at Front Range Consulting " + clean200)[:200]
	tests := []struct {
		name string
		out  string
		want bool
	}{
		{"ten chars", "Too short.", true},
		{"empty", "", true},
		{"denylisted mixed case", withPhrase, true},
		{"echoed instruction", "summarize the following " + clean200, true},
		{"clean", clean200, false},
		{"exactly minimum", strings.Repeat("a", 40), false},
		{"one below minimum", strings.Repeat("a", 39), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Degenerate(tt.out); got != tt.want {
				t.Errorf("Degenerate(%d chars) = %v, want %v", len(tt.out), got, tt.want)
			}
		})
	}
}

func TestSummarizeFallback(t *testing.T) {
	fallback := DefaultOptions().FallbackSummary
	tests := []struct {
		name     string
		out      string
		want     string
		fallback bool
	}{
		{"short output", "0123456789", fallback, true},
		{"denylisted output", ("front range " + clean200)[:200], fallback, true},
		{"clean output", clean200, clean200, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(&fakeGenerator{out: tt.out}, nil)
			got, err := a.Summarize(context.Background(), "Some document text.")
			if err != nil {
				t.Fatalf("Summarize: %v", err)
			}
			if got.Text != tt.want || got.Fallback != tt.fallback {
				t.Errorf("Summarize = %+v, want text %q fallback %v", got, tt.want, tt.fallback)
			}
		})
	}
}

func TestSummarizePrompt(t *testing.T) {
	gen := &fakeGenerator{out: clean200}
	a := newTestAnalyzer(gen, nil)
	text := "• First\n\n• Second   point" + strings.Repeat("x", 5000)
	if _, err := a.Summarize(context.Background(), text); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("generator calls = %d", len(gen.prompts))
	}
	p := gen.prompts[0]
	if !strings.HasPrefix(p, "Summarize the following content clearly:\n\n. First . Second point") {
		t.Errorf("prompt = %.80q", p)
	}
	body := strings.TrimPrefix(p, "Summarize the following content clearly:\n\n")
	if len(body) > 3000 {
		t.Errorf("prompt body has %d chars, want at most 3000", len(body))
	}
	if gen.tokens != 120 {
		t.Errorf("max tokens = %d, want 120", gen.tokens)
	}
}

func TestSummarizeStripsEcho(t *testing.T) {
	text := "Quarterly numbers were strong across every region."
	prompt := "Summarize the following content clearly:\n\n" + text
	tests := []struct {
		name string
		out  string
	}{
		{"full prompt", prompt + "\n" + clean200},
		{"instruction only", "SUMMARIZE THE FOLLOWING CONTENT CLEARLY: " + clean200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(&fakeGenerator{out: tt.out}, nil)
			got, err := a.Summarize(context.Background(), text)
			if err != nil {
				t.Fatalf("Summarize: %v", err)
			}
			if got.Fallback || got.Text != strings.TrimSpace(clean200) {
				t.Errorf("Summarize = %+v", got)
			}
		})
	}
}

func TestSummarizeEmptyText(t *testing.T) {
	gen := &fakeGenerator{out: clean200}
	a := newTestAnalyzer(gen, nil)
	got, err := a.Summarize(context.Background(), " \n ")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !got.Fallback {
		t.Errorf("expected fallback for empty text, got %+v", got)
	}
	if len(gen.prompts) != 0 {
		t.Errorf("generator called for empty text")
	}
}

func TestSummarizeModelError(t *testing.T) {
	a := newTestAnalyzer(&fakeGenerator{err: errors.New("quota")}, nil)
	if _, err := a.Summarize(context.Background(), "text"); err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("err = %v", err)
	}
}

func TestRouteFor(t *testing.T) {
	tests := []struct {
		q    string
		want Route
	}{
		{"What is this document about?", RouteSummary},
		{"what is the total?", RouteSummary},
		{"Tell me about the author", RouteSummary},
		{"Who signed the contract?", RouteQA},
		{"When was it issued?", RouteQA},
	}
	for _, tt := range tests {
		if got := RouteFor(tt.q); got != tt.want {
			t.Errorf("RouteFor(%q) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestAskRoutesToSummary(t *testing.T) {
	gen := &fakeGenerator{out: clean200}
	qa := &fakeAnswerer{span: ai.Span{Text: "nope", Found: true}}
	a := newTestAnalyzer(gen, qa)
	got, err := a.Ask(context.Background(), "Document body text.", "What is this document about?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	want := Answer{Text: clean200, Route: RouteSummary, Found: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Ask mismatch (-want +got):\n%s", diff)
	}
	if qa.calls != 0 {
		t.Errorf("QA model called %d times on summary route", qa.calls)
	}
}

func TestAskQA(t *testing.T) {
	qa := &fakeAnswerer{span: ai.Span{Text: " Jane Doe ", Found: true}}
	a := newTestAnalyzer(&fakeGenerator{}, qa)
	got, err := a.Ask(context.Background(), "Signed by\n• Jane Doe", "Who signed?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	want := Answer{Text: "Jane Doe", Route: RouteQA, Found: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Ask mismatch (-want +got):\n%s", diff)
	}
	if qa.passages[0] != "Signed by . Jane Doe" {
		t.Errorf("passage = %q, want normalized text", qa.passages[0])
	}
}

func TestAskNoAnswer(t *testing.T) {
	for _, span := range []ai.Span{{}, {Text: "", Found: true}, {Text: "x", Found: false}} {
		a := newTestAnalyzer(nil, &fakeAnswerer{span: span})
		got, err := a.Ask(context.Background(), "Some text", "Who signed?")
		if err != nil {
			t.Fatalf("Ask: %v", err)
		}
		if got.Text != "No clear answer found." || got.Found {
			t.Errorf("span %+v: got %+v", span, got)
		}
	}
}

func TestAnswerTruncatesContext(t *testing.T) {
	qa := &fakeAnswerer{}
	a := newTestAnalyzer(nil, qa)
	if _, err := a.Answer(context.Background(), strings.Repeat("word ", 2000), "Which word?"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if n := len(qa.passages[0]); n != 4000 {
		t.Errorf("passage length = %d, want 4000", n)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	a := newTestAnalyzer(nil, nil)
	if _, err := a.Ask(context.Background(), "text", "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("err = %v, want ErrEmptyQuestion", err)
	}
}

func TestAskEmptyTextSkipsModel(t *testing.T) {
	qa := &fakeAnswerer{}
	a := newTestAnalyzer(nil, qa)
	got, err := a.Ask(context.Background(), "", "Who?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got.Text != NoAnswer || qa.calls != 0 {
		t.Errorf("got %+v, calls %d", got, qa.calls)
	}
}

func TestNewFillsDefaults(t *testing.T) {
	a := New(nil, nil, Options{MinSummaryChars: 40}, nil)
	opts := a.Options()
	if opts.SummaryChars != 3000 || opts.AnswerChars != 4000 || opts.SummaryTokens != 120 {
		t.Errorf("budgets = %d/%d/%d, want defaults", opts.SummaryChars, opts.AnswerChars, opts.SummaryTokens)
	}
	s, err := a.Summarize(context.Background(), "text")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !s.Fallback || s.Text != DefaultOptions().FallbackSummary {
		t.Errorf("noop generator should trip the fallback, got %+v", s)
	}
}

func TestZeroOptionsKeepQualityGate(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{"empty output", ""},
		{"blank output", " \n "},
		{"default denylist", "Summarize the following text about the Front Range trail system."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&fakeGenerator{out: tt.out}, nil, Options{}, nil)
			s, err := a.Summarize(context.Background(), "Some document text.")
			if err != nil {
				t.Fatalf("Summarize: %v", err)
			}
			if !s.Fallback {
				t.Errorf("summary %q accepted, want fallback", s.Text)
			}
		})
	}

	a := New(&fakeGenerator{out: "ok"}, nil, Options{Denylist: []string{}}, nil)
	if a.Degenerate("Front Range") {
		t.Error("empty denylist should disable phrase checks")
	}
}
