package analyze

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thywilljoshua/docanalyzer/internal/extract"
)

type Summary struct {
	Text string `json:"summary"`
	// Raw is the model output after prompt-echo stripping.
	Raw      string `json:"raw,omitempty"`
	Fallback bool   `json:"fallback"`
}

// Summarize sends a normalized prefix of text to the generator and applies
// the quality gate to what comes back.
func (a *Analyzer) Summarize(ctx context.Context, text string) (Summary, error) {
	prefix := extract.Normalize(extract.Truncate(text, a.opts.SummaryChars))
	if prefix == "" {
		return Summary{Text: a.opts.FallbackSummary, Fallback: true}, nil
	}
	prompt := a.opts.SummaryPrompt + "\n\n" + prefix

	mctx, cancel := a.withTimeout(ctx)
	defer cancel()
	out, err := a.gen.Generate(mctx, prompt, a.opts.SummaryTokens)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	out = stripEcho(out, prompt, a.opts.SummaryPrompt)

	if reason := a.degenerate(out); reason != "" {
		a.logger.Info("summary replaced by fallback", "reason", reason, "chars", utf8.RuneCountInString(out))
		return Summary{Text: a.opts.FallbackSummary, Raw: out, Fallback: true}, nil
	}
	return Summary{Text: out, Raw: out}, nil
}

// Degenerate reports whether out fails the summary quality gate.
func (a *Analyzer) Degenerate(out string) bool {
	return a.degenerate(out) != ""
}

func (a *Analyzer) degenerate(out string) string {
	if strings.TrimSpace(out) == "" {
		return "empty"
	}
	if utf8.RuneCountInString(out) < a.opts.MinSummaryChars {
		return "too short"
	}
	lower := strings.ToLower(out)
	for _, phrase := range a.opts.Denylist {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return fmt.Sprintf("denylisted phrase %q", phrase)
		}
	}
	return ""
}

// stripEcho removes a repeated prompt, or just its instruction line, from the
// start of out.
func stripEcho(out, prompt, instruction string) string {
	out = strings.TrimSpace(out)
	for _, p := range []string{prompt, instruction} {
		if p == "" {
			continue
		}
		if rest, ok := cutPrefixFold(out, p); ok {
			return strings.TrimSpace(rest)
		}
	}
	return out
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
