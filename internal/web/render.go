package web

import (
	"bytes"
	"html/template"
	"strings"
)

// markdown renders model output as sanitized HTML. Models tend to answer in
// Markdown even when asked for prose.
func (s *Server) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(s.policy.SanitizeBytes(buf.Bytes()))
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
