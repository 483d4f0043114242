package convert

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/drummonds/pdf2png/engine/pdfrenderer"
)

// fakeRenderer draws one grey square per page, sized by dpi and shaded by page index
type fakeRenderer struct {
	mu      sync.Mutex
	pages   int
	err     error
	failAt  int
	panicky bool
	calls   int
}

func (f *fakeRenderer) RenderPages(data []byte, dpi int, visit pdfrenderer.PageFunc) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.panicky {
		panic("corrupt xref")
	}
	if f.err != nil {
		return f.err
	}
	for i := 0; i < f.pages; i++ {
		if f.failAt > 0 && i == f.failAt-1 {
			return errors.New("page render failed")
		}
		size := dpi / 10
		img := image.NewGray(image.Rect(0, 0, size, size))
		for x := 0; x < size; x++ {
			for y := 0; y < size; y++ {
				img.SetGray(x, y, color.Gray{Y: uint8((i*37 + len(data)) % 256)})
			}
		}
		if err := visit(i, img); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRenderer) Name() string { return "fake" }

func (f *fakeRenderer) Close() error { return nil }

func (f *fakeRenderer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
