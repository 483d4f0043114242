package main

import (
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/drummonds/pdf2png/batch"
	"github.com/drummonds/pdf2png/config"
	"github.com/drummonds/pdf2png/convert"
	"github.com/drummonds/pdf2png/database"
	"github.com/drummonds/pdf2png/engine"
	"github.com/drummonds/pdf2png/session"
	"github.com/drummonds/pdf2png/webapp"
)

//go:embed webapp/webapp.css
var webappFS embed.FS

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
	convert.Logger = Logger
	session.Logger = Logger
	batch.Logger = Logger
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	// Show info banner if using ephemeral database
	if serverConfig.DatabaseType == "ephemeral" {
		fmt.Println("\n" + strings.Repeat("=", 50))
		fmt.Println("EPHEMERAL DATABASE MODE")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("• Job history will be destroyed on exit")
		fmt.Println("• No persistent data storage")
		fmt.Println(strings.Repeat("=", 50) + "\n")
	}

	Logger.Info("Setting up database", "type", serverConfig.DatabaseType)
	db, err := database.NewRepository(serverConfig)
	if err != nil {
		Logger.Error("Failed to set up job history", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	renderer, pipeline, err := engine.NewConversion(serverConfig)
	if err != nil {
		Logger.Error("Failed to start renderer", "error", err)
		os.Exit(1)
	}
	defer renderer.Close()

	var tracker session.JobTracker
	if t := database.NewTracker(db, database.JobTypeInteractive); t != nil {
		tracker = t
	}

	e := echo.New()
	serverHandler := &engine.ServerHandler{
		DB:           db,
		Echo:         e,
		ServerConfig: serverConfig,
		Sessions:     session.NewStore(pipeline, tracker, serverConfig.DefaultDPI),
		Renderer:     renderer,
	}

	scheduler := serverHandler.InitializeSchedules() //initialize all the cron jobs
	defer scheduler.Stop()
	if err := serverHandler.StartupChecks(); err != nil { //Run all the sanity checks
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}

	setupRoutes(serverHandler)

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}

	Logger.Info("Starting HTTP server")
	if err := startWithPortRetry(e, &serverConfig, 5); err != nil {
		Logger.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

// setupRoutes wires middleware, the JSON API and the go-app UI onto the handler's echo instance
func setupRoutes(serverHandler *engine.ServerHandler) {
	e := serverHandler.Echo
	serverConfig := serverHandler.ServerConfig
	e.HideBanner = true
	e.HTTPErrorHandler = notFoundHandler(e)

	e.Use(middleware.Recover())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Request().URL.Path, "/thumbnail")
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))

	serverHandler.AddAPIRoutes()

	Logger.Info("Setting up go-app WASM UI")
	appHandler := webapp.Handler()

	// app.wasm is built from cmd/webapp into web/ and served from disk
	e.Static("/web", "web")
	e.GET("/wasm_exec.js", echo.WrapHandler(appHandler))
	e.GET("/app.js", echo.WrapHandler(appHandler))
	e.GET("/app.css", echo.WrapHandler(appHandler))
	e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))

	e.GET("/webapp/webapp.css", func(c echo.Context) error {
		data, err := webappFS.ReadFile("webapp/webapp.css")
		if err != nil {
			return c.String(http.StatusNotFound, "webapp.css not found")
		}
		return c.Blob(http.StatusOK, "text/css", data)
	})

	// Inject backend API URL and the default resolution into the page
	e.GET("/config.js", func(c echo.Context) error {
		configJS := fmt.Sprintf(`
// pdf2png Frontend Configuration
window.pdf2pngConfig = {
    apiURL: "%s",
    defaultDPI: %d
};
`, serverConfig.ServerAPIURL, serverConfig.DefaultDPI)
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, configJS)
	})

	// Unknown API paths must not fall through to the app shell
	e.Any("/api/*", func(c echo.Context) error {
		return echo.ErrNotFound
	})

	// Serve go-app handler for all other routes (must be last)
	// The WASM app handles its own client-side routing and 404s via NotFoundPage component
	e.Any("/*", echo.WrapHandler(appHandler))
}

// notFoundHandler answers API errors with JSON and other 404s with a small HTML page
func notFoundHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		message := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			message = fmt.Sprint(he.Message)
		}

		if strings.HasPrefix(c.Request().URL.Path, "/api/") {
			if code == http.StatusNotFound {
				c.JSON(http.StatusNotFound, map[string]string{
					"error":   "Not Found",
					"message": "The requested API endpoint does not exist",
					"path":    c.Request().URL.Path,
				})
				return
			}
			c.JSON(code, map[string]string{"error": message})
			return
		}

		if code == http.StatusNotFound {
			c.HTML(http.StatusNotFound, `<!DOCTYPE html>
<html>
<head><title>404 - Not Found</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
	<h1>404 - Page Not Found</h1>
	<p>The page you're looking for doesn't exist.</p>
	<a href="/" style="color: #3498db; text-decoration: none; font-size: 18px;">Go to Home Page</a>
</body>
</html>`)
			return
		}

		// For other errors, use default handler
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// startWithPortRetry tries successive ports while the requested one is in use
func startWithPortRetry(e *echo.Echo, serverConfig *config.ServerConfig, maxRetries int) error {
	startPort := serverConfig.ListenAddrPort
	var startErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)

		startErr = e.Start(addr)
		if startErr == nil || startErr == http.ErrServerClosed {
			return nil
		}
		if !isAddressInUse(startErr) {
			return startErr
		}

		Logger.Warn("Port already in use, trying next port",
			"port", serverConfig.ListenAddrPort,
			"attempt", attempt+1,
			"max_attempts", maxRetries)

		portNum := 0
		fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
		portNum++
		serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum)
	}

	Logger.Error("Failed to find available port after maximum retries",
		"start_port", startPort,
		"end_port", serverConfig.ListenAddrPort,
		"max_retries", maxRetries)
	return startErr
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "address already in use")
}
