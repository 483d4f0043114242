package pdfrenderer

import (
	"fmt"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo)
type PDFiumRenderer struct {
	mu       sync.Mutex // a PDFium instance is not safe for concurrent use
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewPDFiumRenderer creates a new PDFium-based PDF renderer using WebAssembly
func NewPDFiumRenderer() (*PDFiumRenderer, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	return &PDFiumRenderer{
		pool:     pool,
		instance: instance,
	}, nil
}

// Name returns the backend name
func (r *PDFiumRenderer) Name() string {
	return BackendPDFium
}

// RenderPages rasterizes each page of an in-memory PDF using go-pdfium WebAssembly
func (r *PDFiumRenderer) RenderPages(data []byte, dpi int, visit PageFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.instance == nil {
		return fmt.Errorf("PDFium renderer is closed")
	}

	doc, err := r.instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		return fmt.Errorf("unable to open PDF document: %w", err)
	}
	defer r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	pageCountResp, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		return fmt.Errorf("unable to get page count: %w", err)
	}

	for pageIndex := 0; pageIndex < pageCountResp.PageCount; pageIndex++ {
		pageRender, err := r.instance.RenderPageInDPI(&requests.RenderPageInDPI{
			DPI: dpi,
			Page: requests.Page{
				ByIndex: &requests.PageByIndex{
					Document: doc.Document,
					Index:    pageIndex,
				},
			},
		})
		if err != nil {
			return fmt.Errorf("unable to render page %d: %w", pageIndex+1, err)
		}

		// The image lives in WebAssembly memory until Cleanup
		visitErr := visit(pageIndex, pageRender.Result.Image)
		pageRender.Cleanup()
		if visitErr != nil {
			return visitErr
		}
	}

	return nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var closeErr error
	if r.instance != nil {
		closeErr = r.instance.Close()
		r.instance = nil
	}
	if r.pool != nil {
		if err := r.pool.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		r.pool = nil
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close PDFium: %w", closeErr)
	}
	return nil
}
