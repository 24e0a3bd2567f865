//go:build !notesseract

package main

import (
	"github.com/thywilljoshua/docanalyzer/internal/config"
	"github.com/thywilljoshua/docanalyzer/internal/extract"
	"github.com/thywilljoshua/docanalyzer/internal/extract/tesseract"
)

func ocrEngine(c config.OCR) extract.OCREngine {
	return tesseract.New(c.TessdataPrefix, c.Languages)
}
