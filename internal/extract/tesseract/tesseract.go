// Package tesseract provides the gosseract-backed OCR engine. It needs cgo and
// libtesseract at build time, so it lives apart from package extract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

type Engine struct {
	tessdataPrefix string
	languages      []string
	clientFactory  func() *gosseract.Client
}

// New builds an engine. An empty tessdataPrefix keeps the library default;
// no languages means Tesseract's default ("eng").
func New(tessdataPrefix string, languages []string) *Engine {
	return &Engine{
		tessdataPrefix: tessdataPrefix,
		languages:      append([]string(nil), languages...),
		clientFactory:  gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()
	if e.tessdataPrefix != "" {
		c.TessdataPrefix = e.tessdataPrefix
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
