package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

type fakeEngine struct {
	text  string
	err   error
	calls int
	got   []byte
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, img []byte) (string, error) {
	f.calls++
	f.got = img
	return f.text, f.err
}

func testImage(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.Black)
	var b bytes.Buffer
	if err := encode(&b, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b.Bytes()
}

func pngBytes(t *testing.T) []byte {
	return testImage(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) })
}

func jpegBytes(t *testing.T) []byte {
	return testImage(t, func(b *bytes.Buffer, m image.Image) error { return jpeg.Encode(b, m, nil) })
}

func TestRouterPDF(t *testing.T) {
	eng := &fakeEngine{text: "should not be used"}
	r := NewRouter(RouterConfig{OCR: eng, Logger: discardLogger()})
	res, err := r.Extract(context.Background(), Document{
		Data:        buildPDF(t, []string{"Invoice 42"}),
		ContentType: "application/pdf",
		Filename:    "invoice.pdf",
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Extractor != ExtractorPDF || res.Text != "Invoice 42" {
		t.Errorf("result = %+v", res)
	}
	if eng.calls != 0 {
		t.Errorf("ocr called %d times for a pdf", eng.calls)
	}
}

func TestRouterImage(t *testing.T) {
	for _, ct := range []string{"image/png", "image/jpeg", "image"} {
		t.Run(ct, func(t *testing.T) {
			eng := &fakeEngine{text: "scanned words"}
			r := NewRouter(RouterConfig{OCR: eng, Logger: discardLogger()})
			res, err := r.Extract(context.Background(), Document{Data: pngBytes(t), ContentType: ct})
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if res.Extractor != ExtractorOCR || res.Text != "scanned words" {
				t.Errorf("result = %+v", res)
			}
			if eng.calls != 1 {
				t.Errorf("ocr calls = %d, want 1", eng.calls)
			}
		})
	}
}

func TestRouterRestrictedRefusesOCR(t *testing.T) {
	eng := &fakeEngine{text: "x"}
	r := NewRouter(RouterConfig{Restricted: true, OCR: eng, Logger: discardLogger()})
	if r.OCRAvailable() {
		t.Fatal("OCRAvailable() = true in restricted mode")
	}
	_, err := r.Extract(context.Background(), Document{Data: pngBytes(t), ContentType: "image/png"})
	if !errors.Is(err, ErrOCRUnavailable) {
		t.Fatalf("err = %v, want ErrOCRUnavailable", err)
	}
	if eng.calls != 0 {
		t.Errorf("ocr called %d times in restricted mode", eng.calls)
	}
}

func TestRouterWithoutEngine(t *testing.T) {
	r := NewRouter(RouterConfig{Logger: discardLogger()})
	_, err := r.Extract(context.Background(), Document{Data: pngBytes(t), ContentType: "image/jpeg"})
	if !errors.Is(err, ErrOCRUnavailable) {
		t.Fatalf("err = %v, want ErrOCRUnavailable", err)
	}
}

func TestRouterUnknownType(t *testing.T) {
	eng := &fakeEngine{}
	r := NewRouter(RouterConfig{OCR: eng, Logger: discardLogger()})
	for _, ct := range []string{"text/plain", "", "application/msword"} {
		res, err := r.Extract(context.Background(), Document{Data: []byte("hello"), ContentType: ct})
		if err != nil {
			t.Fatalf("%q: %v", ct, err)
		}
		if res.Extractor != ExtractorNone || res.Text != "" {
			t.Errorf("%q: result = %+v", ct, res)
		}
	}
	if eng.calls != 0 {
		t.Errorf("ocr calls = %d", eng.calls)
	}
}

func TestRouterContentTypeParams(t *testing.T) {
	r := NewRouter(RouterConfig{Logger: discardLogger()})
	res, err := r.Extract(context.Background(), Document{
		Data:        buildPDF(t, []string{"ok"}),
		ContentType: "Application/PDF; name=x.pdf",
	})
	if err != nil || res.Text != "ok" {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
}

func TestOCRReencodesToPNG(t *testing.T) {
	eng := &fakeEngine{text: "jpeg text"}
	res, err := NewOCR(eng).Extract(context.Background(), jpegBytes(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Text != "jpeg text" {
		t.Errorf("text = %q", res.Text)
	}
	if !bytes.HasPrefix(eng.got, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("engine did not receive PNG bytes")
	}
}

func TestOCRInvalidImage(t *testing.T) {
	eng := &fakeEngine{}
	_, err := NewOCR(eng).Extract(context.Background(), []byte("not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("err = %v, want ErrInvalidImage", err)
	}
	if eng.calls != 0 {
		t.Errorf("engine called on invalid image")
	}
}

func TestOCREngineError(t *testing.T) {
	eng := &fakeEngine{err: errors.New("boom")}
	_, err := NewOCR(eng).Extract(context.Background(), pngBytes(t))
	if err == nil || err.Error() != "fake: boom" {
		t.Fatalf("err = %v", err)
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"report.PDF", nil, "application/pdf"},
		{"scan.jpg", nil, "image/jpeg"},
		{"scan.jpeg", nil, "image/jpeg"},
		{"photo.png", nil, "image/png"},
		{"noext", pngBytes(t), "image/png"},
		{"noext", []byte("%PDF-1.4\n"), "application/pdf"},
	}
	for _, tt := range tests {
		if got := DetectContentType(tt.name, tt.data); got != tt.want {
			t.Errorf("DetectContentType(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
