package engine

import (
	"fmt"

	"github.com/drummonds/pdf2png/config"
	"github.com/drummonds/pdf2png/convert"
	"github.com/drummonds/pdf2png/engine/pdfrenderer"
)

// NewConversion starts the configured render backend and puts the memoising
// pipeline in front of it. The caller closes the renderer.
func NewConversion(serverConfig config.ServerConfig) (pdfrenderer.Renderer, *convert.Pipeline, error) {
	renderer, err := pdfrenderer.NewRenderer(serverConfig.RenderBackend)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start render backend: %w", err)
	}
	Logger.Info("Render backend started", "backend", renderer.Name())

	pipeline, err := convert.NewPipeline(renderer, serverConfig.RenderCacheEntries)
	if err != nil {
		renderer.Close()
		return nil, nil, err
	}
	return renderer, pipeline, nil
}
