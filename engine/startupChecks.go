package engine

import (
	"fmt"
	"image"

	"github.com/drummonds/pdf2png/config"
	"github.com/drummonds/pdf2png/internal/samplepdf"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	settingsChecks(serverHandler.ServerConfig)
	return serverHandler.rendererChecks()
}

// settingsChecks warns about settings that silently fall back to defaults
func settingsChecks(serverConfig config.ServerConfig) {
	if !config.IsDPIOption(serverConfig.DefaultDPI) {
		Logger.Warn("Default DPI is not one of the offered resolutions", "dpi", serverConfig.DefaultDPI)
	}
	if serverConfig.MaxUploadMB <= 0 {
		Logger.Warn("MAX_UPLOAD_MB is not positive, using 64")
	}
	if serverConfig.RenderCacheEntries <= 0 {
		Logger.Warn("RENDER_CACHE_ENTRIES is not positive, using the default")
	}
}

// rendererChecks renders a one page sample so a broken backend shows up at startup
func (serverHandler *ServerHandler) rendererChecks() error {
	if serverHandler.Renderer == nil {
		return fmt.Errorf("no render backend configured")
	}

	pages := 0
	err := serverHandler.Renderer.RenderPages(samplepdf.Build(1), 72, func(index int, img image.Image) error {
		if img.Bounds().Empty() {
			return fmt.Errorf("page %d rendered empty", index+1)
		}
		pages++
		return nil
	})
	if err != nil {
		Logger.Error("Render backend failed its startup check", "backend", serverHandler.Renderer.Name(), "error", err)
		return err
	}
	if pages != 1 {
		return fmt.Errorf("render backend %s produced %d pages for a one page sample", serverHandler.Renderer.Name(), pages)
	}

	Logger.Info("Render backend passed startup check", "backend", serverHandler.Renderer.Name())
	return nil
}
