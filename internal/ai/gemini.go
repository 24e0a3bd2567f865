package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

const answerInstruction = `You answer questions about a document by quoting it.
Return ONLY a JSON object {"answer": string, "found": bool}.
"answer" must be copied verbatim from the context: a short contiguous span, no paraphrase.
If the context does not contain the answer, return {"answer": "", "found": false}.`

var answerSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"answer": {Type: genai.TypeString},
		"found":  {Type: genai.TypeBoolean},
	},
	Required: []string{"answer", "found"},
}

type Gemini struct {
	client      *genai.Client
	model       string
	answerModel string
}

// NewGemini builds a client for the Gemini API. answerModel may be empty, in
// which case model serves both summaries and answers.
func NewGemini(ctx context.Context, apiKey, model, answerModel string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if answerModel == "" {
		answerModel = model
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model, answerModel: answerModel}, nil
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.client == nil {
		return "", nil
	}
	conf := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		conf.MaxOutputTokens = int32(maxTokens)
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, conf)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return res.Text(), nil
}

// Answer asks the model for a span of passage that answers question. Answers
// that do not occur in passage are reported as not found.
func (g *Gemini) Answer(ctx context.Context, question, passage string) (Span, error) {
	if g.client == nil {
		return Span{}, nil
	}
	conf := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(answerInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    answerSchema,
		Temperature:       genai.Ptr[float32](0),
	}
	prompt := "Context:\n" + passage + "\n\nQuestion: " + question
	res, err := g.client.Models.GenerateContent(ctx, g.answerModel, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, conf)
	if err != nil {
		return Span{}, fmt.Errorf("gemini answer: %w", err)
	}
	span, err := parseSpan(res.Text())
	if err != nil {
		return Span{}, err
	}
	return extractive(span, passage), nil
}

func parseSpan(js string) (Span, error) {
	var out Span
	js = stripCodeFences(js)
	if js == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(js), &out); err != nil {
		s := findFirstJSON(js)
		if s == "" {
			return out, fmt.Errorf("failed to parse answer - no JSON found: %w", err)
		}
		if err2 := json.Unmarshal([]byte(s), &out); err2 != nil {
			return out, fmt.Errorf("failed to parse answer as JSON: %w (original error: %v)", err2, err)
		}
	}
	return out, nil
}

// extractive keeps span only if its text occurs in passage, returning it with
// the passage's own casing.
func extractive(span Span, passage string) Span {
	ans := strings.TrimSpace(span.Text)
	if !span.Found || ans == "" {
		return Span{}
	}
	if strings.Contains(passage, ans) {
		return Span{Text: ans, Found: true}
	}
	lp, la := strings.ToLower(passage), strings.ToLower(ans)
	i := strings.Index(lp, la)
	if i < 0 {
		return Span{}
	}
	if len(lp) == len(passage) && len(la) == len(ans) {
		return Span{Text: passage[i : i+len(ans)], Found: true}
	}
	return Span{Text: ans, Found: true}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func findFirstJSON(s string) string {
	// naive scan for the first balanced {...}
	start := -1
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
