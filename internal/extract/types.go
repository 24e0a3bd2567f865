package extract

import "context"

// Document is an uploaded blob with the content type its uploader declared.
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
}

type Result struct {
	Text          string `json:"text"`
	Extractor     string `json:"extractor"`
	Pages         int    `json:"pages,omitempty"`
	PagesWithText int    `json:"pages_with_text,omitempty"`
}

// Extractor turns document bytes into flat text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (Result, error)
}

const (
	ExtractorPDF  = "pdf"
	ExtractorOCR  = "ocr"
	ExtractorNone = "none"
)
