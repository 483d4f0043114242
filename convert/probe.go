package convert

import (
	"bytes"
	"log/slog"

	"github.com/ledongthuc/pdf"
)

// Logger is replaced by main with the configured application logger
var Logger = slog.Default()

const (
	// FallbackPageCount is assumed when a document cannot be parsed. It is above
	// MaxSafePages so an unreadable document never renders above MaxSafeDPI.
	FallbackPageCount = 101
	// MaxSafePages is the largest document rendered at the requested DPI
	MaxSafePages = 50
	// MaxSafeDPI is the resolution used for documents above MaxSafePages
	MaxSafeDPI = 150
)

// PageCount is the result of probing a document
type PageCount struct {
	Pages int
	Known bool
}

func unknownPageCount() PageCount {
	return PageCount{Pages: FallbackPageCount, Known: false}
}

// CountPages reads the page tree of a PDF without rasterizing anything.
// Any parse failure, including a panic inside the parser, yields an unknown count.
func CountPages(data []byte) (count PageCount) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Warn("PDF parser panicked while counting pages", "panic", r)
			count = unknownPageCount()
		}
	}()

	if len(data) == 0 {
		return unknownPageCount()
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		Logger.Debug("Unable to read PDF page tree", "error", err)
		return unknownPageCount()
	}

	pages := reader.NumPage()
	if pages < 0 {
		return unknownPageCount()
	}
	return PageCount{Pages: pages, Known: true}
}
