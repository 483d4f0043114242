// Package session holds the interactive conversion state of each browser session.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/drummonds/pdf2png/config"
	"github.com/drummonds/pdf2png/convert"
)

// Logger is replaced by main with the configured application logger
var Logger = slog.Default()

var (
	ErrNoDocument     = errors.New("no converted document in this session")
	ErrEmptyUpload    = errors.New("uploaded file is empty")
	ErrPageOutOfRange = errors.New("page number out of range")
	ErrInvalidDPI     = errors.New("DPI must be one of 150, 300 or 600")
	ErrNotFound       = errors.New("session not found")
)

// State of the single document slot of a session
type State string

const (
	StateEmpty  State = "empty"
	StateLoaded State = "loaded"
	StateReady  State = "ready"
	StateError  State = "error"
)

// Converter renders a whole document at one resolution
type Converter interface {
	Render(data []byte, dpi int) convert.Result
}

// JobTracker records renders in the job history
type JobTracker interface {
	Begin(document string, requestedDPI, effectiveDPI int) (string, error)
	Succeed(jobID string, pages int, message string) error
	Fail(jobID string, message string) error
}

type document struct {
	id   ulid.ULID
	name string
	stem string
	data []byte
}

type renderKey struct {
	documentID ulid.ULID
	dpi        int
}

// PageInfo describes one rendered page without its image bytes
type PageInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
}

// Snapshot is the externally visible state of a session
type Snapshot struct {
	SessionID      string     `json:"sessionId"`
	State          State      `json:"state"`
	DocumentID     string     `json:"documentId,omitempty"`
	FileName       string     `json:"fileName,omitempty"`
	Stem           string     `json:"stem,omitempty"`
	PageCount      int        `json:"pageCount"`
	PageCountKnown bool       `json:"pageCountKnown"`
	RequestedDPI   int        `json:"requestedDPI"`
	EffectiveDPI   int        `json:"effectiveDPI"`
	Warning        string     `json:"warning,omitempty"`
	Error          string     `json:"error,omitempty"`
	Message        string     `json:"message,omitempty"`
	Pages          []PageInfo `json:"pages"`
	ArchiveName    string     `json:"archiveName,omitempty"`
	Enlarged       int        `json:"enlarged"`
	Renders        int        `json:"renders"`
}

// Controller drives one session. Every operation holds the session lock,
// including any render it triggers.
type Controller struct {
	mu         sync.Mutex
	id         string
	converter  Converter
	jobs       JobTracker
	now        func() time.Time
	lastUsed   atomic.Int64
	state      State
	requested  int
	doc        *document
	decision   convert.Decision
	result     convert.Result
	rendered   renderKey
	hasRender  bool
	enlarged   int
	message    string
	thumbnails map[int][]byte
	renders    int
}

// NewController creates an empty session. jobs may be nil.
func NewController(id string, converter Converter, jobs JobTracker, defaultDPI int) *Controller {
	if !config.IsDPIOption(defaultDPI) {
		defaultDPI = config.DefaultDPI
	}
	c := &Controller{
		id:        id,
		converter: converter,
		jobs:      jobs,
		now:       time.Now,
		state:     StateEmpty,
		requested: defaultDPI,
	}
	c.touch()
	return c
}

// ID of the session
func (c *Controller) ID() string {
	return c.id
}

// LastUsed is the time of the most recent operation
func (c *Controller) LastUsed() time.Time {
	return time.Unix(0, c.lastUsed.Load())
}

func (c *Controller) touch() {
	c.lastUsed.Store(c.now().UnixNano())
}

// Upload replaces the session document and converts it at the selected resolution
func (c *Controller) Upload(name string, data []byte) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if len(data) == 0 {
		return c.snapshot(), ErrEmptyUpload
	}

	c.doc = &document{
		id:   ulid.Make(),
		name: name,
		stem: convert.Stem(name),
		data: data,
	}
	Logger.Info("Document uploaded", "session", c.id, "document", c.doc.id.String(), "name", name, "bytes", len(data))
	return c.reconcile(), nil
}

// SelectDPI changes the requested resolution, re-rendering only if the applied resolution changes
func (c *Controller) SelectDPI(dpi int) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if !config.IsDPIOption(dpi) {
		return c.snapshot(), fmt.Errorf("%w: got %d", ErrInvalidDPI, dpi)
	}
	c.requested = dpi
	if c.doc == nil {
		return c.snapshot(), nil
	}
	return c.reconcile(), nil
}

// reconcile brings the render in line with the current document and resolution.
// Callers hold c.mu and have set c.doc.
func (c *Controller) reconcile() Snapshot {
	c.state = StateLoaded
	c.decision = convert.Apply(convert.CountPages(c.doc.data), c.requested)
	if c.decision.Downgraded() {
		Logger.Warn("DPI reduced for large document", "session", c.id,
			"pages", c.decision.Pages.Pages, "requested", c.decision.RequestedDPI, "applied", c.decision.EffectiveDPI)
	}

	key := renderKey{documentID: c.doc.id, dpi: c.decision.EffectiveDPI}
	if c.hasRender && c.rendered == key {
		c.state = StateReady
		return c.snapshot()
	}

	jobID := c.beginJob()
	result := c.converter.Render(c.doc.data, c.decision.EffectiveDPI)
	c.renders++

	if !result.OK() {
		failure := "Error converting PDF: " + result.Message()
		c.failJob(jobID, failure)
		Logger.Error("Conversion failed", "session", c.id, "document", c.doc.name, "error", result.Message())

		// the failed attempt's resolution and warning are reported with the error
		decision := c.decision
		name := c.doc.name
		c.clear()
		snap := c.snapshot()
		snap.State = StateError
		snap.Error = failure
		snap.FileName = name
		snap.PageCount = decision.Pages.Pages
		snap.PageCountKnown = decision.Pages.Known
		snap.EffectiveDPI = decision.EffectiveDPI
		snap.Warning = decision.Warning()
		return snap
	}

	c.result = result
	c.rendered = key
	c.hasRender = true
	c.thumbnails = make(map[int][]byte)
	c.enlarged = 0
	c.message = fmt.Sprintf("Conversion successful! Found %d pages.", len(result.Pages))
	c.state = StateReady
	c.succeedJob(jobID, len(result.Pages))
	return c.snapshot()
}

func (c *Controller) beginJob() string {
	if c.jobs == nil {
		return ""
	}
	jobID, err := c.jobs.Begin(c.doc.name, c.decision.RequestedDPI, c.decision.EffectiveDPI)
	if err != nil {
		Logger.Warn("Unable to record job", "error", err)
		return ""
	}
	return jobID
}

func (c *Controller) succeedJob(jobID string, pages int) {
	if c.jobs == nil || jobID == "" {
		return
	}
	if err := c.jobs.Succeed(jobID, pages, c.message); err != nil {
		Logger.Warn("Unable to complete job", "job", jobID, "error", err)
	}
}

func (c *Controller) failJob(jobID string, message string) {
	if c.jobs == nil || jobID == "" {
		return
	}
	if err := c.jobs.Fail(jobID, message); err != nil {
		Logger.Warn("Unable to fail job", "job", jobID, "error", err)
	}
}

// clear drops the document and every cached render state, keeping the selected DPI
func (c *Controller) clear() {
	c.state = StateEmpty
	c.doc = nil
	c.decision = convert.Decision{}
	c.result = convert.Result{}
	c.rendered = renderKey{}
	c.hasRender = false
	c.enlarged = 0
	c.message = ""
	c.thumbnails = nil
}

// Remove discards the document
func (c *Controller) Remove() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.doc != nil {
		Logger.Info("Document removed", "session", c.id, "document", c.doc.name)
	}
	c.clear()
	return c.snapshot()
}

func (c *Controller) checkPage(n int) error {
	if c.state != StateReady {
		return ErrNoDocument
	}
	if n < 1 || n > len(c.result.Pages) {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, n, len(c.result.Pages))
	}
	return nil
}

// Enlarge opens page n in the full size view
func (c *Controller) Enlarge(n int) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if err := c.checkPage(n); err != nil {
		return c.snapshot(), err
	}
	c.enlarged = n
	return c.snapshot(), nil
}

// CloseEnlarged closes the full size view
func (c *Controller) CloseEnlarged() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.enlarged = 0
	return c.snapshot()
}

// Page returns the PNG of page n and its download name
func (c *Controller) Page(n int) ([]byte, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if err := c.checkPage(n); err != nil {
		return nil, "", err
	}
	page, _ := c.result.Page(n)
	return page.PNG, convert.DownloadName(c.doc.stem, n), nil
}

// Archive returns the ZIP of every page and its download name
func (c *Controller) Archive() ([]byte, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.state != StateReady {
		return nil, "", ErrNoDocument
	}
	return c.result.Archive, convert.ArchiveName(c.doc.stem), nil
}

// Thumbnail returns a grid preview of page n
func (c *Controller) Thumbnail(n int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if err := c.checkPage(n); err != nil {
		return nil, err
	}
	if thumb, ok := c.thumbnails[n]; ok {
		return thumb, nil
	}
	page, _ := c.result.Page(n)
	thumb, err := convert.Thumbnail(page.PNG, convert.ThumbnailWidth)
	if err != nil {
		return nil, err
	}
	c.thumbnails[n] = thumb
	return thumb, nil
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	return c.snapshot()
}

func (c *Controller) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:    c.id,
		State:        c.state,
		RequestedDPI: c.requested,
		EffectiveDPI: c.requested,
		Pages:        []PageInfo{},
		Enlarged:     c.enlarged,
		Renders:      c.renders,
	}
	if c.doc == nil {
		return snap
	}

	snap.DocumentID = c.doc.id.String()
	snap.FileName = c.doc.name
	snap.Stem = c.doc.stem
	snap.PageCount = c.decision.Pages.Pages
	snap.PageCountKnown = c.decision.Pages.Known
	snap.EffectiveDPI = c.decision.EffectiveDPI
	snap.Warning = c.decision.Warning()

	if c.state == StateReady {
		snap.Message = c.message
		snap.ArchiveName = convert.ArchiveName(c.doc.stem)
		for _, page := range c.result.Pages {
			snap.Pages = append(snap.Pages, PageInfo{
				Number: page.Number,
				Name:   convert.DownloadName(c.doc.stem, page.Number),
				Size:   len(page.PNG),
			})
		}
	}
	return snap
}
