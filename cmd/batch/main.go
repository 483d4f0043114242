package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/drummonds/pdf2png/batch"
	"github.com/drummonds/pdf2png/config"
	"github.com/drummonds/pdf2png/convert"
	"github.com/drummonds/pdf2png/database"
	"github.com/drummonds/pdf2png/engine/pdfrenderer"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	database.Logger = Logger
	convert.Logger = Logger
	batch.Logger = Logger
}

func main() {
	batchConfig, logger := config.SetupBatch()
	injectGlobals(logger)

	// Flags override the environment
	pdfPath := flag.String("pdf", batchConfig.PDFPath, "PDF file to convert (PDF_FILE_PATH)")
	dpi := flag.Int("dpi", batchConfig.DPI, "Output resolution (OUTPUT_DPI)")
	outputPath := flag.String("output", batchConfig.OutputPath, "Base output directory (OUTPUT_PATH)")
	backend := flag.String("backend", batchConfig.RenderBackend, "Render backend, pdfium or fitz (RENDER_BACKEND)")
	history := flag.String("history", batchConfig.DatabaseType, "Job history database, none, sqlite or postgres (DATABASE_TYPE)")
	flag.Parse()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("pdf2png batch conversion")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	run(batch.Options{PDFPath: *pdfPath, DPI: *dpi, OutputPath: *outputPath}, *backend, *history, batchConfig)
}

// run never fails the process, conversion problems are printed by the runner
func run(opts batch.Options, backend, history string, batchConfig config.BatchConfig) {
	renderer, err := pdfrenderer.NewRenderer(backend)
	if err != nil {
		fmt.Printf("\nA conversion error occurred.\n   Error details: %v\n", err)
		Logger.Error("Failed to start render backend", "backend", backend, "error", err)
		return
	}
	defer renderer.Close()

	runner := &batch.Runner{Renderer: renderer, Out: os.Stdout}

	batchConfig.DatabaseType = history
	db, err := database.NewRepository(batchConfig.ServerConfig())
	if err != nil {
		Logger.Warn("Job history unavailable, continuing without it", "error", err)
	} else if db != nil {
		defer db.Close()
		if tracker := database.NewTracker(db, database.JobTypeBatch); tracker != nil {
			runner.Jobs = tracker
		}
	}

	report, err := runner.Run(opts)
	if err != nil {
		Logger.Error("Batch conversion failed", "pdf", opts.PDFPath, "error", err, "written", len(report.Files))
		return
	}
	Logger.Info("Batch conversion finished", "pdf", opts.PDFPath, "outputDir", report.OutputDir, "pages", len(report.Files))
}
