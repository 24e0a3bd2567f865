package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrInvalidImage = errors.New("invalid image")

// OCREngine recognizes the text of a whole PNG image in one pass.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (string, error)
}

type OCR struct {
	engine OCREngine
}

func NewOCR(engine OCREngine) *OCR {
	return &OCR{engine: engine}
}

// Extract decodes data as an image, re-encodes it as PNG and hands it to the
// engine.
func (o *OCR) Extract(ctx context.Context, data []byte) (Result, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	buf := data
	if format != "png" {
		var b bytes.Buffer
		if err := png.Encode(&b, img); err != nil {
			return Result{}, fmt.Errorf("encode png: %w", err)
		}
		buf = b.Bytes()
	}
	text, err := o.engine.Recognize(ctx, buf)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", o.engine.Name(), err)
	}
	return Result{Text: text, Extractor: ExtractorOCR}, nil
}
