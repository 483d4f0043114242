package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// DPIOptions are the resolutions offered to interactive users
var DPIOptions = []int{150, 300, 600}

// DefaultDPI is used when OUTPUT_DPI is absent or invalid
const DefaultDPI = 300

// ServerConfig contains all of the web server settings
type ServerConfig struct {
	ListenAddrIP         string
	ListenAddrPort       string
	DefaultDPI           int
	RenderBackend        string
	MaxUploadMB          int
	RenderCacheEntries   int
	SessionIdleMinutes   int
	SessionSweepInterval int
	JobRetentionDays     int
	DatabaseType         string
	DatabaseHost         string
	DatabasePort         string
	DatabaseUser         string
	DatabasePassword     string `json:"-"`
	DatabaseDbname       string
	DatabaseSslmode      string
	DatabaseDebug        bool
	ServerAPIURL         string
}

// BatchConfig contains the settings for a single command line conversion
type BatchConfig struct {
	PDFPath       string
	DPI           int
	OutputPath    string
	RenderBackend string
	DatabaseType  string
	DatabaseName  string
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// IsDPIOption reports whether dpi is one of the interactive choices
func IsDPIOption(dpi int) bool {
	for _, option := range DPIOptions {
		if option == dpi {
			return true
		}
	}
	return false
}

// interactiveDPI reads OUTPUT_DPI and falls back to DefaultDPI unless the value is one of DPIOptions
func interactiveDPI() int {
	dpi := getEnvInt("OUTPUT_DPI", DefaultDPI)
	if !IsDPIOption(dpi) {
		Logger.Warn("OUTPUT_DPI is not an offered resolution, using default", "value", os.Getenv("OUTPUT_DPI"), "default", DefaultDPI)
		return DefaultDPI
	}
	return dpi
}

// batchDPI reads OUTPUT_DPI, any positive value is accepted
func batchDPI() int {
	dpi := getEnvInt("OUTPUT_DPI", DefaultDPI)
	if dpi <= 0 {
		return DefaultDPI
	}
	return dpi
}

// loadEnvFiles loads .env style files, silently ignoring missing ones
func loadEnvFiles(names ...string) {
	for _, name := range names {
		_ = godotenv.Load(name)
	}
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	serverConfigLive := ServerConfig{}

	loadEnvFiles(".env", "config.env")

	logger := setupLogging()
	Logger = logger

	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "")
	serverConfigLive.ServerAPIURL = getEnv("SERVER_API_URL", "")

	// Rendering
	serverConfigLive.DefaultDPI = interactiveDPI()
	serverConfigLive.RenderBackend = getEnv("RENDER_BACKEND", "pdfium")
	serverConfigLive.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", 64)
	serverConfigLive.RenderCacheEntries = getEnvInt("RENDER_CACHE_ENTRIES", 5)
	logger.Info("Render configuration loaded",
		"backend", serverConfigLive.RenderBackend,
		"defaultDPI", serverConfigLive.DefaultDPI,
		"cacheEntries", serverConfigLive.RenderCacheEntries)

	// Sessions
	serverConfigLive.SessionIdleMinutes = getEnvInt("SESSION_IDLE_MINUTES", 30)
	serverConfigLive.SessionSweepInterval = getEnvInt("SESSION_SWEEP_INTERVAL", 5)

	// Job history
	serverConfigLive.JobRetentionDays = getEnvInt("JOB_RETENTION_DAYS", 30)
	serverConfigLive.DatabaseType = getEnv("DATABASE_TYPE", "sqlite")
	serverConfigLive.DatabaseHost = getEnv("DATABASE_HOST", "localhost")
	serverConfigLive.DatabasePort = getEnv("DATABASE_PORT", "5432")
	serverConfigLive.DatabaseUser = getEnv("DATABASE_USER", "pdf2png")
	serverConfigLive.DatabasePassword = getEnv("DATABASE_PASSWORD", "")
	serverConfigLive.DatabaseDbname = getEnv("DATABASE_NAME", "databases/pdf2png.sqlite")
	serverConfigLive.DatabaseSslmode = getEnv("DATABASE_SSLMODE", "disable")
	serverConfigLive.DatabaseDebug = getEnvBool("DATABASE_DEBUG", false)
	logger.Info("Database configuration loaded", "type", serverConfigLive.DatabaseType)

	fmt.Println("\n========================================")
	fmt.Println("   pdf2png - PDF to PNG Converter")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", serverConfigLive.ListenAddrIP, serverConfigLive.ListenAddrPort)
	if serverConfigLive.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}
	fmt.Printf("Detailed logs: %s\n", getEnv("LOG_FILE", "pdf2png.log"))
	fmt.Println("Initializing...")

	return serverConfigLive, logger
}

// SetupBatch loads configuration for a command line conversion
func SetupBatch() (BatchConfig, *slog.Logger) {
	loadEnvFiles(".env", "config.env")

	logger := setupLogging()
	Logger = logger

	batchConfig := BatchConfig{
		PDFPath:       getEnv("PDF_FILE_PATH", ""),
		DPI:           batchDPI(),
		OutputPath:    filepath.ToSlash(getEnv("OUTPUT_PATH", "output_images")),
		RenderBackend: getEnv("RENDER_BACKEND", "pdfium"),
		DatabaseType:  getEnv("DATABASE_TYPE", "none"),
		DatabaseName:  getEnv("DATABASE_NAME", "databases/pdf2png.sqlite"),
	}

	logger.Info("Batch configuration loaded",
		"pdfPath", batchConfig.PDFPath,
		"dpi", batchConfig.DPI,
		"outputPath", batchConfig.OutputPath,
		"backend", batchConfig.RenderBackend)

	return batchConfig, logger
}

// ServerConfig returns the database part of a batch configuration in server form
func (b BatchConfig) ServerConfig() ServerConfig {
	return ServerConfig{
		DatabaseType:   b.DatabaseType,
		DatabaseDbname: b.DatabaseName,
	}
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "file")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "pdf2png.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logWriter = newRotatingLog(logPath)
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}

// newRotatingLog appends to path, rolling it over once it reaches LOG_MAX_SIZE_MB
func newRotatingLog(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    getEnvInt("LOG_MAX_SIZE_MB", 10),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		MaxAge:     getEnvInt("LOG_MAX_AGE_DAYS", 28),
	}
}
