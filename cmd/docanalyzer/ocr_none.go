//go:build notesseract

package main

import (
	"github.com/thywilljoshua/docanalyzer/internal/config"
	"github.com/thywilljoshua/docanalyzer/internal/extract"
)

// Built without libtesseract: image uploads report OCR as unavailable.
func ocrEngine(config.OCR) extract.OCREngine { return nil }
