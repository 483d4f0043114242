package pdfrenderer

import (
	"fmt"
	"image"
	"strings"
)

// PageFunc receives one rendered page. Pages arrive in document order and index is 0-based.
// The image is only valid until PageFunc returns.
type PageFunc func(index int, img image.Image) error

// Renderer defines the interface for PDF to image conversion
type Renderer interface {
	// RenderPages rasterizes every page of the PDF held in data at the given DPI
	// and hands each page to visit. Rendering stops at the first error.
	RenderPages(data []byte, dpi int, visit PageFunc) error

	// Name identifies the backend in logs and the about page
	Name() string

	// Close cleans up any resources used by the renderer
	Close() error
}

const (
	BackendPDFium = "pdfium"
	BackendFitz   = "fitz"
)

// NewRenderer creates the renderer named by backend. PDFium (pure Go) is the default.
func NewRenderer(backend string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendPDFium:
		return NewPDFiumRenderer()
	case BackendFitz, "mupdf":
		return NewFitzRenderer()
	default:
		return nil, fmt.Errorf("unknown render backend %q (supported: %s, %s)", backend, BackendPDFium, BackendFitz)
	}
}
