package convert

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/drummonds/pdf2png/engine/pdfrenderer"
)

// DefaultCacheEntries is the number of distinct renders kept in memory
const DefaultCacheEntries = 5

// ErrNoPages is returned for documents that parse but contain no pages
var ErrNoPages = errors.New("PDF has no pages")

// Page is one rendered page
type Page struct {
	Number int
	PNG    []byte
}

// Name is the archive entry name of the page
func (p Page) Name() string {
	return PageName(p.Number)
}

// Result is either the rendered pages with their archive or a failure, never both
type Result struct {
	Pages   []Page
	Archive []byte
	Err     error
}

// OK reports whether the render succeeded
func (r Result) OK() bool {
	return r.Err == nil && r.Archive != nil
}

// Message is the user facing failure text
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Page returns the 1-based page n
func (r Result) Page(n int) (Page, bool) {
	if n < 1 || n > len(r.Pages) {
		return Page{}, false
	}
	return r.Pages[n-1], true
}

func failed(err error) Result {
	return Result{Err: err}
}

type memoKey struct {
	digest string
	dpi    int
}

func (k memoKey) String() string {
	return fmt.Sprintf("%s@%d", k.digest, k.dpi)
}

// Pipeline renders documents into pages plus a ZIP archive.
// Successful results are memoised by document content and resolution.
type Pipeline struct {
	renderer pdfrenderer.Renderer
	memo     *lru.Cache[memoKey, Result]
	group    singleflight.Group
	renders  atomic.Int64
}

// NewPipeline wraps a renderer with a result cache of cacheEntries renders
func NewPipeline(renderer pdfrenderer.Renderer, cacheEntries int) (*Pipeline, error) {
	if renderer == nil {
		return nil, errors.New("no renderer configured")
	}
	if cacheEntries <= 0 {
		cacheEntries = DefaultCacheEntries
	}
	memo, err := lru.New[memoKey, Result](cacheEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}
	return &Pipeline{renderer: renderer, memo: memo}, nil
}

// Renders is the number of times the renderer actually ran
func (p *Pipeline) Renders() int64 {
	return p.renders.Load()
}

// Backend names the renderer behind the pipeline
func (p *Pipeline) Backend() string {
	return p.renderer.Name()
}

// Render converts every page of data at dpi. Identical requests that arrive
// together share one render.
func (p *Pipeline) Render(data []byte, dpi int) Result {
	key := memoKey{digest: Digest(data), dpi: dpi}
	if cached, ok := p.memo.Get(key); ok {
		Logger.Debug("Render cache hit", "key", key.String())
		return cached
	}

	v, _, _ := p.group.Do(key.String(), func() (any, error) {
		if cached, ok := p.memo.Get(key); ok {
			return cached, nil
		}
		result := p.render(data, dpi)
		if result.OK() {
			p.memo.Add(key, result)
		}
		return result, nil
	})
	return v.(Result)
}

func (p *Pipeline) render(data []byte, dpi int) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Renderer panicked", "panic", r, "dpi", dpi)
			result = failed(fmt.Errorf("renderer failed unexpectedly: %v", r))
		}
	}()

	p.renders.Add(1)
	start := time.Now()

	var pages []Page
	archive := newArchiveWriter()
	err := p.renderer.RenderPages(data, dpi, func(index int, img image.Image) error {
		png, err := EncodePNG(img)
		if err != nil {
			return fmt.Errorf("page %d: %w", index+1, err)
		}
		page := Page{Number: index + 1, PNG: png}
		pages = append(pages, page)
		return archive.add(page)
	})
	if err != nil {
		Logger.Error("Render failed", "error", err, "dpi", dpi, "pagesDone", len(pages))
		return failed(err)
	}
	if len(pages) == 0 {
		return failed(ErrNoPages)
	}

	zipData, err := archive.bytes()
	if err != nil {
		return failed(err)
	}

	Logger.Info("Rendered PDF", "backend", p.renderer.Name(), "pages", len(pages), "dpi", dpi,
		"archiveBytes", len(zipData), "duration", time.Since(start))
	return Result{Pages: pages, Archive: zipData}
}
