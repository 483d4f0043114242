package pdfrenderer

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

// Name returns the backend name
func (r *FitzRenderer) Name() string {
	return BackendFitz
}

// RenderPages rasterizes each page of an in-memory PDF using go-fitz
func (r *FitzRenderer) RenderPages(data []byte, dpi int, visit PageFunc) error {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return fmt.Errorf("unable to open PDF document: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	for pageNum := 0; pageNum < numPages; pageNum++ {
		img, err := doc.ImageDPI(pageNum, float64(dpi))
		if err != nil {
			return fmt.Errorf("unable to render page %d: %w", pageNum+1, err)
		}
		if err := visit(pageNum, img); err != nil {
			return err
		}
	}

	return nil
}

// Close cleans up resources (no-op for Fitz renderer as doc is closed per-render)
func (r *FitzRenderer) Close() error {
	return nil
}
