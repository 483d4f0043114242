// Package batch converts one PDF on disk into a directory of PNG files.
package batch

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/drummonds/pdf2png/convert"
	"github.com/drummonds/pdf2png/engine/pdfrenderer"
)

// Logger is replaced by main with the configured application logger
var Logger = slog.Default()

var (
	ErrPathNotFound    = errors.New("PDF file not found")
	ErrDirectoryCreate = errors.New("unable to create output directory")
	ErrRender          = errors.New("conversion failed")
)

// JobTracker records the run in the job history
type JobTracker interface {
	Begin(document string, requestedDPI, effectiveDPI int) (string, error)
	Succeed(jobID string, pages int, message string) error
	Fail(jobID string, message string) error
}

// Options for one run
type Options struct {
	PDFPath    string
	DPI        int
	OutputPath string
}

// Report lists what a run wrote
type Report struct {
	OutputDir string
	Files     []string
}

// Runner converts documents with a renderer, printing progress to Out
type Runner struct {
	Renderer pdfrenderer.Renderer
	Jobs     JobTracker // optional
	Out      io.Writer
}

// Run renders every page of opts.PDFPath at opts.DPI into OutputPath/{stem}.
// Pages written before a failure stay on disk and are listed in the report.
func (r *Runner) Run(opts Options) (Report, error) {
	out := r.output()
	report := Report{}

	if _, err := os.Stat(opts.PDFPath); opts.PDFPath == "" || err != nil {
		fmt.Fprintf(out, "Error: PDF file not found at path: %s\n", opts.PDFPath)
		fmt.Fprintln(out, "Please check your PDF_FILE_PATH in the .env file.")
		return report, fmt.Errorf("%w: %q", ErrPathNotFound, opts.PDFPath)
	}

	fileName := filepath.Base(opts.PDFPath)
	stem := convert.Stem(fileName)
	outputDir := filepath.Join(opts.OutputPath, stem)

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		fmt.Fprintf(out, "Error creating directory: %v\n", err)
		return report, fmt.Errorf("%w: %w", ErrDirectoryCreate, err)
	}
	report.OutputDir = outputDir
	fmt.Fprintf(out, "Output directory created: %s\n", outputDir)

	jobID := r.beginJob(fileName, opts.DPI)
	fmt.Fprintf(out, "Starting conversion for '%s' at %d DPI...\n", fileName, opts.DPI)
	start := time.Now()

	err := r.render(opts, stem, outputDir, &report)
	if err != nil {
		fmt.Fprintln(out, "\nA conversion error occurred.")
		fmt.Fprintf(out, "   Error details: %v\n", err)
		Logger.Error("Batch conversion failed", "pdf", opts.PDFPath, "pagesWritten", len(report.Files), "error", err)
		r.failJob(jobID, err.Error())
		return report, fmt.Errorf("%w: %w", ErrRender, err)
	}

	message := fmt.Sprintf("Conversion successful! %d images saved to %s", len(report.Files), outputDir)
	fmt.Fprintf(out, "\n%s\n", message)
	Logger.Info("Batch conversion finished", "pdf", opts.PDFPath, "pages", len(report.Files), "dpi", opts.DPI, "duration", time.Since(start))
	r.succeedJob(jobID, len(report.Files), message)
	return report, nil
}

func (r *Runner) render(opts Options, stem, outputDir string, report *Report) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("renderer failed unexpectedly: %v", p)
		}
	}()

	if r.Renderer == nil {
		return errors.New("no renderer configured")
	}

	data, err := os.ReadFile(opts.PDFPath)
	if err != nil {
		return err
	}

	rendered := 0
	err = r.Renderer.RenderPages(data, opts.DPI, func(index int, img image.Image) error {
		png, err := convert.EncodePNG(img)
		if err != nil {
			return err
		}
		name := convert.DownloadName(stem, index+1)
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, png, 0644); err != nil {
			return fmt.Errorf("unable to save %s: %w", name, err)
		}
		report.Files = append(report.Files, path)
		rendered++
		fmt.Fprintf(r.output(), "  -> Saved page %d as: %s\n", index+1, name)
		return nil
	})
	if err != nil {
		return err
	}
	if rendered == 0 {
		return convert.ErrNoPages
	}
	return nil
}

func (r *Runner) output() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Runner) beginJob(document string, dpi int) string {
	if r.Jobs == nil {
		return ""
	}
	jobID, err := r.Jobs.Begin(document, dpi, dpi)
	if err != nil {
		Logger.Warn("Unable to record batch job", "error", err)
		return ""
	}
	return jobID
}

func (r *Runner) succeedJob(jobID string, pages int, message string) {
	if r.Jobs == nil || jobID == "" {
		return
	}
	if err := r.Jobs.Succeed(jobID, pages, message); err != nil {
		Logger.Warn("Unable to complete batch job", "error", err)
	}
}

func (r *Runner) failJob(jobID string, message string) {
	if r.Jobs == nil || jobID == "" {
		return
	}
	if err := r.Jobs.Fail(jobID, message); err != nil {
		Logger.Warn("Unable to fail batch job", "error", err)
	}
}
