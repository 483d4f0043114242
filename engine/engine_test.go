package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drummonds/pdf2png/config"
	"github.com/drummonds/pdf2png/convert"
	"github.com/drummonds/pdf2png/database"
	"github.com/drummonds/pdf2png/engine/pdfrenderer"
	"github.com/drummonds/pdf2png/internal/samplepdf"
	"github.com/drummonds/pdf2png/session"
)

// pageTreeRenderer draws as many pages as the document's page tree declares
type pageTreeRenderer struct {
	calls int
}

func (r *pageTreeRenderer) RenderPages(data []byte, dpi int, visit pdfrenderer.PageFunc) error {
	r.calls++
	count := convert.CountPages(data)
	if !count.Known {
		return errors.New("unable to open PDF document: format error")
	}
	for i := 0; i < count.Pages; i++ {
		if err := visit(i, image.NewGray(image.Rect(0, 0, dpi*2, dpi))); err != nil {
			return err
		}
	}
	return nil
}

func (r *pageTreeRenderer) Name() string { return "fake" }

func (r *pageTreeRenderer) Close() error { return nil }

type testServer struct {
	handler  *ServerHandler
	renderer *pageTreeRenderer
}

func newTestServer(t *testing.T, withJobs bool) *testServer {
	t.Helper()

	serverConfig := config.ServerConfig{
		DefaultDPI:         300,
		RenderBackend:      "fake",
		MaxUploadMB:        1,
		RenderCacheEntries: 5,
		DatabaseType:       "none",
	}

	var db database.Repository
	var tracker session.JobTracker
	if withJobs {
		serverConfig.DatabaseType = "sqlite"
		serverConfig.DatabaseDbname = filepath.Join(t.TempDir(), "jobs.sqlite")
		repo, err := database.NewRepository(serverConfig)
		if err != nil {
			t.Fatalf("Failed to open job history: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		db = repo
		tracker = database.NewTracker(repo, database.JobTypeInteractive)
	}

	renderer := &pageTreeRenderer{}
	pipeline, err := convert.NewPipeline(renderer, serverConfig.RenderCacheEntries)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	handler := &ServerHandler{
		DB:           db,
		Echo:         echo.New(),
		ServerConfig: serverConfig,
		Sessions:     session.NewStore(pipeline, tracker, serverConfig.DefaultDPI),
		Renderer:     renderer,
	}
	handler.AddAPIRoutes()
	return &testServer{handler: handler, renderer: renderer}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createSession(t *testing.T) session.Snapshot {
	t.Helper()
	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating session, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeSnapshot(t, rec)
}

func (s *testServer) upload(t *testing.T, sessionID, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/document", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return s.do(t, req)
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Failed to decode snapshot %q: %v", rec.Body.String(), err)
	}
	return snap
}

func TestSessionRoundTrip(t *testing.T) {
	server := newTestServer(t, false)
	created := server.createSession(t)
	if created.State != session.StateEmpty {
		t.Errorf("Expected empty session, got %s", created.State)
	}
	if created.RequestedDPI != 300 {
		t.Errorf("Expected default DPI 300, got %d", created.RequestedDPI)
	}

	rec := server.upload(t, created.SessionID, "report.pdf", samplepdf.Build(3))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 uploading, got %d: %s", rec.Code, rec.Body.String())
	}
	snap := decodeSnapshot(t, rec)
	if snap.State != session.StateReady || len(snap.Pages) != 3 {
		t.Fatalf("Expected 3 ready pages, got %+v", snap)
	}
	if snap.Message != "Conversion successful! Found 3 pages." {
		t.Errorf("Unexpected message %q", snap.Message)
	}

	base := "/api/sessions/" + created.SessionID

	rec = server.do(t, httptest.NewRequest(http.MethodGet, base+"/pages/2?download=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for page, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="report_page_002.png"` {
		t.Errorf("Unexpected content disposition %s", cd)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodGet, base+"/pages/1", nil))
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.HasPrefix(cd, "inline") {
		t.Errorf("Expected inline page without download flag, got %s", cd)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodGet, base+"/archive", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for archive, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/zip" {
		t.Errorf("Expected application/zip, got %s", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="report_all_pages.zip"` {
		t.Errorf("Unexpected content disposition %s", cd)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodGet, base+"/pages/1/thumbnail", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for thumbnail, got %d", rec.Code)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodPost, base+"/enlarge/2", nil))
	if snap := decodeSnapshot(t, rec); snap.Enlarged != 2 {
		t.Errorf("Expected page 2 enlarged, got %d", snap.Enlarged)
	}
	rec = server.do(t, httptest.NewRequest(http.MethodDelete, base+"/enlarge", nil))
	if snap := decodeSnapshot(t, rec); snap.Enlarged != 0 {
		t.Errorf("Expected enlarged view closed, got %d", snap.Enlarged)
	}

	if server.renderer.calls != 1 {
		t.Errorf("Downloads and enlarge must not render, renderer ran %d times", server.renderer.calls)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodDelete, base+"/document", nil))
	if snap := decodeSnapshot(t, rec); snap.State != session.StateEmpty {
		t.Errorf("Expected empty session after remove, got %s", snap.State)
	}
	rec = server.do(t, httptest.NewRequest(http.MethodGet, base+"/archive", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for archive without document, got %d", rec.Code)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodDelete, base, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 deleting session, got %d", rec.Code)
	}
	rec = server.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for deleted session, got %d", rec.Code)
	}
}

func TestSelectDPIEndpoint(t *testing.T) {
	server := newTestServer(t, false)
	created := server.createSession(t)
	base := "/api/sessions/" + created.SessionID

	server.upload(t, created.SessionID, "big.pdf", samplepdf.Build(60))

	req := httptest.NewRequest(http.MethodPut, base+"/dpi", strings.NewReader(`{"dpi": 600}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := server.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	snap := decodeSnapshot(t, rec)
	if snap.EffectiveDPI != 150 || snap.RequestedDPI != 600 {
		t.Errorf("Expected 600 capped to 150, got %d -> %d", snap.RequestedDPI, snap.EffectiveDPI)
	}
	if !strings.Contains(snap.Warning, "60 pages") {
		t.Errorf("Expected warning naming the page count, got %q", snap.Warning)
	}
	if server.renderer.calls != 1 {
		t.Errorf("Effective DPI did not change so no render expected, got %d", server.renderer.calls)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodPut, base+"/dpi?dpi=200", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unsupported DPI, got %d", rec.Code)
	}
	rec = server.do(t, httptest.NewRequest(http.MethodPut, base+"/dpi?dpi=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non numeric DPI, got %d", rec.Code)
	}
}

func TestUploadFailureReportsError(t *testing.T) {
	server := newTestServer(t, true)
	created := server.createSession(t)

	rec := server.upload(t, created.SessionID, "notes.txt", samplepdf.Corrupt())
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	snap := decodeSnapshot(t, rec)
	if snap.State != session.StateError || !strings.Contains(snap.Error, "Error converting PDF") {
		t.Errorf("Unexpected failure snapshot %+v", snap)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+created.SessionID, nil))
	if snap := decodeSnapshot(t, rec); snap.State != session.StateEmpty {
		t.Errorf("Expected session to be empty after the error was reported, got %s", snap.State)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for jobs, got %d", rec.Code)
	}
	var jobs []database.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("Failed to decode jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Status != database.JobStatusFailed {
		t.Fatalf("Expected one failed job, got %+v", jobs)
	}

	rec = server.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobs[0].ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for job, got %d", rec.Code)
	}
	rec = server.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/not-a-ulid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad job ID, got %d", rec.Code)
	}
}

func TestUploadValidation(t *testing.T) {
	server := newTestServer(t, false)
	created := server.createSession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+created.SessionID+"/document", strings.NewReader(""))
	rec := server.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a file, got %d", rec.Code)
	}

	rec = server.upload(t, created.SessionID, "empty.pdf", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an empty file, got %d", rec.Code)
	}

	rec = server.upload(t, created.SessionID, "huge.pdf", bytes.Repeat([]byte("x"), 2<<20))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for an oversized upload, got %d", rec.Code)
	}

	rec = server.upload(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", "a.pdf", samplepdf.Build(1))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestPageErrors(t *testing.T) {
	server := newTestServer(t, false)
	created := server.createSession(t)
	base := "/api/sessions/" + created.SessionID
	server.upload(t, created.SessionID, "a.pdf", samplepdf.Build(2))

	for _, path := range []string{base + "/pages/3", base + "/pages/0", base + "/pages/abc", base + "/pages/9/thumbnail"} {
		rec := server.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for %s, got %d", path, rec.Code)
		}
	}
}

func TestJobsDisabled(t *testing.T) {
	server := newTestServer(t, false)
	rec := server.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 with job history disabled, got %d", rec.Code)
	}
}

func TestAboutAndHealth(t *testing.T) {
	server := newTestServer(t, false)

	rec := server.do(t, httptest.NewRequest(http.MethodGet, "/api/about", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var about map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &about); err != nil {
		t.Fatalf("Failed to decode about: %v", err)
	}
	if about["renderBackend"] != "fake" {
		t.Errorf("Expected fake backend, got %v", about["renderBackend"])
	}
	if about["maxSafePages"] != float64(50) || about["maxSafeDPI"] != float64(150) {
		t.Errorf("Unexpected safety limits: %v", about)
	}
	if about["jobHistory"] != false {
		t.Errorf("Expected job history disabled, got %v", about["jobHistory"])
	}

	rec = server.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestStartupChecks(t *testing.T) {
	server := newTestServer(t, false)
	if err := server.handler.StartupChecks(); err != nil {
		t.Errorf("Expected startup checks to pass: %v", err)
	}

	server.handler.Renderer = nil
	if err := server.handler.StartupChecks(); err == nil {
		t.Error("Expected startup checks to fail without a renderer")
	}
}

func TestScheduledJobs(t *testing.T) {
	server := newTestServer(t, true)
	server.createSession(t)

	if removed := server.handler.sweepSessionsJob(time.Hour); removed != 0 {
		t.Errorf("Fresh sessions must survive the sweep, removed %d", removed)
	}
	if removed := server.handler.sweepSessionsJob(-time.Minute); removed != 1 {
		t.Errorf("Expected the session to be swept, removed %d", removed)
	}

	if deleted := server.handler.jobRetentionJob(time.Hour); deleted != 0 {
		t.Errorf("Expected nothing to delete, got %d", deleted)
	}

	scheduler := server.handler.InitializeSchedules()
	if len(scheduler.Entries()) != 2 {
		t.Errorf("Expected sweep and retention entries, got %d", len(scheduler.Entries()))
	}
	scheduler.Stop()
}

func TestNewConversionUnknownBackend(t *testing.T) {
	if _, _, err := NewConversion(config.ServerConfig{RenderBackend: "ghostscript"}); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}
