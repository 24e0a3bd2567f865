package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	lpdf "github.com/ledongthuc/pdf"
)

var ErrInvalidPDF = errors.New("invalid pdf")

type PDF struct {
	logger *slog.Logger
}

func NewPDF(logger *slog.Logger) *PDF {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDF{logger: logger}
}

// Extract reads every page in order and joins the pages that carry text with
// newlines. Pages without text, or whose content cannot be interpreted,
// contribute nothing.
func (p *PDF) Extract(ctx context.Context, data []byte) (res Result, err error) {
	// The pdf reader reports malformed input by panicking.
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	doc, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	n := doc.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		t, err := pageText(doc.Page(i))
		if err != nil {
			p.logger.Debug("skipping unreadable page", "page", i, "err", err)
		}
		pages = append(pages, t)
	}
	text, kept := joinPages(pages)
	p.logger.Debug("pdf extracted", "pages", n, "pages_with_text", kept, "chars", len(text))
	return Result{Text: text, Extractor: ExtractorPDF, Pages: n, PagesWithText: kept}, nil
}

// joinPages drops blank pages and joins the rest with newlines, in order.
func joinPages(pages []string) (string, int) {
	kept := make([]string, 0, len(pages))
	for _, pg := range pages {
		if strings.TrimSpace(pg) == "" {
			continue
		}
		kept = append(kept, pg)
	}
	return strings.Join(kept, "\n"), len(kept)
}

func pageText(pg lpdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page content: %v", r)
		}
	}()
	if pg.V.IsNull() || pg.V.Key("Contents").IsNull() {
		return "", nil
	}
	rows, err := pg.GetTextByRow()
	if err != nil {
		return "", err
	}
	return joinRows(rows), nil
}

// joinRows renders rows top to bottom (PDF y grows upwards). Text runs on one row are already in
// left to right order and are separated by a space unless one of them
// carries its own.
func joinRows(rows lpdf.Rows) string {
	rows = append(lpdf.Rows(nil), rows...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position > rows[j].Position })
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for _, run := range row.Content {
			if run.S == "" {
				continue
			}
			if b.Len() > 0 && !endsInSpace(b.String()) && !startsWithSpace(run.S) {
				b.WriteByte(' ')
			}
			b.WriteString(run.S)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}

func endsInSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}
