package batch

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drummonds/pdf2png/engine/pdfrenderer"
	"github.com/drummonds/pdf2png/internal/samplepdf"
)

type fakeRenderer struct {
	pages  int
	failAt int
	dpis   []int
}

func (f *fakeRenderer) RenderPages(data []byte, dpi int, visit pdfrenderer.PageFunc) error {
	f.dpis = append(f.dpis, dpi)
	for i := 0; i < f.pages; i++ {
		if f.failAt > 0 && i == f.failAt-1 {
			return errors.New("page render failed")
		}
		if err := visit(i, image.NewGray(image.Rect(0, 0, 8, 4))); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRenderer) Name() string { return "fake" }

func (f *fakeRenderer) Close() error { return nil }

type recordingJobs struct {
	begun     []string
	succeeded int
	failed    string
}

func (r *recordingJobs) Begin(document string, requestedDPI, effectiveDPI int) (string, error) {
	r.begun = append(r.begun, document)
	return "job-1", nil
}

func (r *recordingJobs) Succeed(jobID string, pages int, message string) error {
	r.succeeded = pages
	return nil
}

func (r *recordingJobs) Fail(jobID string, message string) error {
	r.failed = message
	return nil
}

func writePDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := samplepdf.WriteFile(path, pages); err != nil {
		t.Fatalf("Failed to write test PDF: %v", err)
	}
	return path
}

func TestRunWritesEveryPage(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writePDF(t, dir, "report.pdf", 3)
	outputPath := filepath.Join(dir, "output_images")

	var out bytes.Buffer
	renderer := &fakeRenderer{pages: 3}
	jobs := &recordingJobs{}
	runner := &Runner{Renderer: renderer, Jobs: jobs, Out: &out}

	report, err := runner.Run(Options{PDFPath: pdfPath, DPI: 200, OutputPath: outputPath})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.OutputDir != filepath.Join(outputPath, "report") {
		t.Errorf("Unexpected output directory %s", report.OutputDir)
	}
	for i, name := range []string{"report_page_001.png", "report_page_002.png", "report_page_003.png"} {
		path := filepath.Join(outputPath, "report", name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
		if report.Files[i] != path {
			t.Errorf("Expected report entry %d to be %s, got %s", i, path, report.Files[i])
		}
	}

	if renderer.dpis[0] != 200 {
		t.Errorf("Expected batch to render at 200 DPI without a cap, got %d", renderer.dpis[0])
	}

	output := out.String()
	for _, expected := range []string{
		"Starting conversion for 'report.pdf' at 200 DPI...",
		"  -> Saved page 2 as: report_page_002.png",
		"Conversion successful! 3 images saved to",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q, got:\n%s", expected, output)
		}
	}

	if len(jobs.begun) != 1 || jobs.begun[0] != "report.pdf" || jobs.succeeded != 3 {
		t.Errorf("Unexpected job tracking: %+v", jobs)
	}
}

func TestRunMissingPath(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "output_images")

	var out bytes.Buffer
	runner := &Runner{Renderer: &fakeRenderer{pages: 1}, Out: &out}
	_, err := runner.Run(Options{PDFPath: filepath.Join(dir, "missing.pdf"), DPI: 300, OutputPath: outputPath})
	if !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("Expected ErrPathNotFound, got %v", err)
	}
	if !strings.Contains(out.String(), "Error: PDF file not found at path:") {
		t.Errorf("Expected not found message, got %q", out.String())
	}
	if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
		t.Error("No output directory should be created for a missing PDF")
	}
}

func TestRunEmptyPath(t *testing.T) {
	runner := &Runner{Renderer: &fakeRenderer{pages: 1}, Out: &bytes.Buffer{}}
	_, err := runner.Run(Options{DPI: 300, OutputPath: t.TempDir()})
	if !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("Expected ErrPathNotFound, got %v", err)
	}
}

func TestRunKeepsPagesWrittenBeforeFailure(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writePDF(t, dir, "scan.pdf", 5)
	outputPath := filepath.Join(dir, "out")

	var out bytes.Buffer
	jobs := &recordingJobs{}
	runner := &Runner{Renderer: &fakeRenderer{pages: 5, failAt: 3}, Jobs: jobs, Out: &out}

	report, err := runner.Run(Options{PDFPath: pdfPath, DPI: 300, OutputPath: outputPath})
	if !errors.Is(err, ErrRender) {
		t.Fatalf("Expected ErrRender, got %v", err)
	}
	if len(report.Files) != 2 {
		t.Errorf("Expected 2 pages written before the failure, got %d", len(report.Files))
	}
	entries, err := os.ReadDir(filepath.Join(outputPath, "scan"))
	if err != nil {
		t.Fatalf("Output directory missing: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected partial output left on disk, found %d files", len(entries))
	}
	if !strings.Contains(out.String(), "A conversion error occurred.") {
		t.Errorf("Expected conversion error message, got %q", out.String())
	}
	if jobs.failed == "" {
		t.Error("Expected the job to be marked failed")
	}
}

func TestRunDirectoryCreateFailure(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writePDF(t, dir, "report.pdf", 1)

	// a file where the output root should be
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	runner := &Runner{Renderer: &fakeRenderer{pages: 1}, Out: &bytes.Buffer{}}
	_, err := runner.Run(Options{PDFPath: pdfPath, DPI: 300, OutputPath: blocker})
	if !errors.Is(err, ErrDirectoryCreate) {
		t.Fatalf("Expected ErrDirectoryCreate, got %v", err)
	}
}

func TestRunPDFium(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDFium render in short mode")
	}

	renderer, err := pdfrenderer.NewPDFiumRenderer()
	if err != nil {
		t.Fatalf("Failed to start PDFium: %v", err)
	}
	defer renderer.Close()

	dir := t.TempDir()
	pdfPath := writePDF(t, dir, "sample.pdf", 2)
	runner := &Runner{Renderer: renderer, Out: &bytes.Buffer{}}

	report, err := runner.Run(Options{PDFPath: pdfPath, DPI: 72, OutputPath: dir})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Files) != 2 {
		t.Errorf("Expected 2 pages, got %d", len(report.Files))
	}
}
