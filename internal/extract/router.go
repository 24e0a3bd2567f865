package extract

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// ErrOCRUnavailable is returned for image uploads when OCR is switched off.
// Its text is shown to the user as is.
var ErrOCRUnavailable = errors.New("image text recognition (OCR) is not supported in this hosted deployment; please upload a PDF instead")

type RouterConfig struct {
	// Restricted marks a hosted deployment where OCR must not run.
	Restricted bool
	// OCR may be nil, which disables image extraction.
	OCR    OCREngine
	Logger *slog.Logger
}

// Router picks an extractor from a document's declared content type.
type Router struct {
	pdf        Extractor
	ocr        Extractor
	restricted bool
	logger     *slog.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		pdf:        NewPDF(logger),
		restricted: cfg.Restricted,
		logger:     logger,
	}
	if cfg.OCR != nil {
		r.ocr = NewOCR(cfg.OCR)
	}
	return r
}

// OCRAvailable reports whether image uploads can be processed.
func (r *Router) OCRAvailable() bool {
	return !r.restricted && r.ocr != nil
}

// Extract dispatches doc to the PDF or OCR extractor. Unknown content types
// produce empty text and no error.
func (r *Router) Extract(ctx context.Context, doc Document) (Result, error) {
	ct := mediaType(doc.ContentType)
	switch {
	case ct == "application/pdf":
		r.logger.Debug("extracting pdf", "file", doc.Filename, "bytes", len(doc.Data))
		return r.pdf.Extract(ctx, doc.Data)
	case strings.HasPrefix(ct, "image"):
		if !r.OCRAvailable() {
			r.logger.Info("ocr refused", "file", doc.Filename, "restricted", r.restricted)
			return Result{}, ErrOCRUnavailable
		}
		r.logger.Debug("running ocr", "file", doc.Filename, "bytes", len(doc.Data))
		return r.ocr.Extract(ctx, doc.Data)
	default:
		r.logger.Debug("no extractor for content type", "file", doc.Filename, "content_type", ct)
		return Result{Extractor: ExtractorNone}, nil
	}
}

// DetectContentType guesses a content type from the file extension, falling
// back to sniffing the first bytes.
func DetectContentType(filename string, data []byte) string {
	if ext := filepath.Ext(filename); ext != "" {
		if ct := mediaType(mime.TypeByExtension(strings.ToLower(ext))); ct != "" {
			return ct
		}
	}
	return mediaType(http.DetectContentType(data))
}

func mediaType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return strings.ToLower(ct)
}
