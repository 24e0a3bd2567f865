package extract

import (
	"regexp"
	"strings"
)

var (
	bulletRe = regexp.MustCompile(`[•●▪◦‣∙■\x{F0B7}]`)
	spaceRe  = regexp.MustCompile(`[\s\p{Z}\x0B\x85]+`)
)

// Normalize turns bullet glyphs into periods, collapses whitespace runs to a
// single space and trims the result. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = bulletRe.ReplaceAllString(s, ".")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
