package engine

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/drummonds/pdf2png/config"
	"github.com/drummonds/pdf2png/convert"
	"github.com/drummonds/pdf2png/database"
	"github.com/drummonds/pdf2png/engine/pdfrenderer"
	"github.com/drummonds/pdf2png/internal/build"
	"github.com/drummonds/pdf2png/session"
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB           database.Repository // nil when job history is disabled
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
	Sessions     *session.Store
	Renderer     pdfrenderer.Renderer
}

// AddAPIRoutes registers every JSON endpoint under /api
func (serverHandler *ServerHandler) AddAPIRoutes() {
	e := serverHandler.Echo
	maxUpload := serverHandler.ServerConfig.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 64
	}

	// Session API routes
	e.POST("/api/sessions", serverHandler.CreateSession)
	e.GET("/api/sessions/:id", serverHandler.GetSession)
	e.DELETE("/api/sessions/:id", serverHandler.DeleteSession)
	e.POST("/api/sessions/:id/document", serverHandler.UploadDocument, middleware.BodyLimit(fmt.Sprintf("%dM", maxUpload)))
	e.DELETE("/api/sessions/:id/document", serverHandler.RemoveDocument)
	e.PUT("/api/sessions/:id/dpi", serverHandler.SelectDPI)
	e.POST("/api/sessions/:id/enlarge/:page", serverHandler.EnlargePage)
	e.DELETE("/api/sessions/:id/enlarge", serverHandler.CloseEnlarged)
	e.GET("/api/sessions/:id/pages/:page", serverHandler.GetPage)
	e.GET("/api/sessions/:id/pages/:page/thumbnail", serverHandler.GetThumbnail)
	e.GET("/api/sessions/:id/archive", serverHandler.GetArchive)

	// Job history API routes
	e.GET("/api/jobs", serverHandler.GetRecentJobs)
	e.GET("/api/jobs/:id", serverHandler.GetJob)

	// Admin API routes
	e.GET("/api/about", serverHandler.GetAboutInfo)
	e.GET("/api/health", serverHandler.Health)
}

func jsonError(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]interface{}{
		"error": message,
	})
}

// sessionError maps controller errors onto HTTP status codes
func sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return jsonError(c, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrPageOutOfRange):
		return jsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrNoDocument):
		return jsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrInvalidDPI), errors.Is(err, session.ErrEmptyUpload):
		return jsonError(c, http.StatusBadRequest, err.Error())
	default:
		Logger.Error("Session request failed", "path", c.Request().URL.Path, "error", err)
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}
}

func (serverHandler *ServerHandler) lookupSession(c echo.Context) (*session.Controller, error) {
	return serverHandler.Sessions.Get(c.Param("id"))
}

func pageParam(c echo.Context) (int, error) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a page number", session.ErrPageOutOfRange, c.Param("page"))
	}
	return page, nil
}

// CreateSession starts a new conversion session
// @Summary Create session
// @Tags Sessions
// @Produce json
// @Success 201 {object} session.Snapshot
// @Router /sessions [post]
func (serverHandler *ServerHandler) CreateSession(c echo.Context) error {
	controller := serverHandler.Sessions.Create()
	return c.JSON(http.StatusCreated, controller.Snapshot())
}

// GetSession returns the state of a session
// @Summary Get session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID (ULID)"
// @Success 200 {object} session.Snapshot
// @Failure 404 {object} map[string]interface{} "Session not found"
// @Router /sessions/{id} [get]
func (serverHandler *ServerHandler) GetSession(c echo.Context) error {
	controller, err := serverHandler.lookupSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, controller.Snapshot())
}

// DeleteSession forgets a session and everything rendered in it
// @Summary Delete session
// @Tags Sessions
// @Param id path string true "Session ID (ULID)"
// @Success 204
// @Router /sessions/{id} [delete]
func (serverHandler *ServerHandler) DeleteSession(c echo.Context) error {
	if err := serverHandler.Sessions.Delete(c.Param("id")); err != nil {
		return sessionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadDocument replaces the session document and converts it
// @Summary Upload a PDF
// @Description Uploads a PDF in the multipart field "file" and renders every page at the selected DPI
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID (ULID)"
// @Param file formData file true "PDF document"
// @Success 200 {object} session.Snapshot
// @Failure 413 {object} map[string]interface{} "Upload too large"
// @Failure 422 {object} session.Snapshot "Conversion failed"
// @Router /sessions/{id}/document [post]
func (serverHandler *ServerHandler) UploadDocument(c echo.Context) error {
	controller, err := serverHandler.lookupSession(c)
	if err != nil {
		return sessionError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
			return jsonError(c, http.StatusRequestEntityTooLarge, "Upload too large")
		}
		Logger.Warn("Upload without file", "error", err)
		return jsonError(c, http.StatusBadRequest, "No file uploaded in field \"file\"")
	}

	maxBytes := int64(serverHandler.ServerConfig.MaxUploadMB) << 20
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return jsonError(c, http.StatusRequestEntityTooLarge, "Upload too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Unable to read upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Unable to read upload")
	}

	snap, err := controller.Upload(fileHeader.Filename, data)
	if err != nil {
		return sessionError(c, err)
	}
	if snap.State == session.StateError {
		return c.JSON(http.StatusUnprocessableEntity, snap)
	}
	return c.JSON(http.StatusOK, snap)
}

// RemoveDocument clears the session document
// @Summary Remove document
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID (ULID)"
// @Success 200 {object} session.Snapshot
// @Router /sessions/{id}/document [delete]
func (serverHandler *ServerHandler) RemoveDocument(c echo.Context) error {
	controller, err := serverHandler.lookupSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, controller.Remove())
}

type dpiRequest struct {
	DPI int `json:"dpi"`
}

// SelectDPI changes the requested resolution
// @Summary Select DPI
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID (ULID)"
// @Param dpi query int false "150, 300 or 600"
// @Success 200 {object} session.Snapshot
// @Failure 400 {object} map[string]interface{} "Unsupported DPI"
// @Router /sessions/{id}/dpi [put]
func (serverHandler *ServerHandler) SelectDPI(c echo.Context) error {
	controller, err := serverHandler.lookupSession(c)
	if err != nil {
		return sessionError(c, err)
	}

	var req dpiRequest
	if dpiStr := c.QueryParam("dpi"); dpiStr != "" {
		req.DPI, err = strconv.Atoi(dpiStr)
		if err != nil {
			return jsonError(c, http.StatusBadRequest, "dpi must be a number")
		}
	} else if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}

	snap, err := controller.SelectDPI(req.DPI)
	if err != nil {
		return sessionError(c, err)
	}
	if snap.State == session.StateError {
		return c.JSON(http.StatusUnprocessableEntity, snap)
	}
	return c.JSON(http.StatusOK, snap)
}

// EnlargePage opens one page in the full size view
// @Summary Enlarge page
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID (ULID)"
// @Param page path int true "Page number from 1"
// @Success 200 {object} session.Snapshot
// @Router /sessions/{id}/enlarge/{page} [post]
func (serverHandler *ServerHandler) EnlargePage(c echo.Context) error {
	controller, err := serverHandler.lookupSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	page, err := pageParam(c)
	if err != nil {
		return sessionError(c, err)
	}
	snap, err := controller.Enlarge(page)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// CloseEnlarged closes the full size view
// @Summary Close enlarged page
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID (ULID)"
// @Success 200 {object} session.Snapshot
// @Router /sessions/{id}/enlarge [delete]
func (serverHandler *ServerHandler) CloseEnlarged(c echo.Context) error {
	controller, err := serverHandler.lookupSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, controller.CloseEnlarged())
}

// GetPage serves one page as PNG
// @Summary Download page
// @Tags Sessions
// @Produce png
// @Param id path string true "Session ID (ULID)"
// @Param page path int true "Page number from 1"
// @Param download query bool false "Serve as attachment"
// @Success 200 {file} binary
// @Router /sessions/{id}/pages/{page} [get]
func (serverHandler *ServerHandler) GetPage(c echo.Context) error {
	controller, err := serverHandler.lookupSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	page, err := pageParam(c)
	if err != nil {
		return sessionError(c, err)
	}
	png, name, err := controller.Page(page)
	if err != nil {
		return sessionError(c, err)
	}

	disposition := "inline"
	if download, _ := strconv.ParseBool(c.QueryParam("download")); download {
		disposition = "attachment"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, name))
	return c.Blob(http.StatusOK, "image/png", png)
}

// GetThumbnail serves a scaled down page for the preview grid
// @Summary Page thumbnail
// @Tags Sessions
// @Produce png
// @Param id path string true "Session ID (ULID)"
// @Param page path int true "Page number from 1"
// @Success 200 {file} binary
// @Router /sessions/{id}/pages/{page}/thumbnail [get]
func (serverHandler *ServerHandler) GetThumbnail(c echo.Context) error {
	controller, err := serverHandler.lookupSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	page, err := pageParam(c)
	if err != nil {
		return sessionError(c, err)
	}
	thumb, err := controller.Thumbnail(page)
	if err != nil {
		return sessionError(c, err)
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	return c.Blob(http.StatusOK, "image/png", thumb)
}

// GetArchive serves the ZIP of every page
// @Summary Download all pages
// @Tags Sessions
// @Produce application/zip
// @Param id path string true "Session ID (ULID)"
// @Success 200 {file} binary
// @Router /sessions/{id}/archive [get]
func (serverHandler *ServerHandler) GetArchive(c echo.Context) error {
	controller, err := serverHandler.lookupSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	archive, name, err := controller.Archive()
	if err != nil {
		return sessionError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/zip", archive)
}

// GetAboutInfo returns information about the application configuration
// @Summary Get application information
// @Description Retrieve version, render backend, resolution choices and safety limits
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Application information"
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(c echo.Context) error {
	backend := serverHandler.ServerConfig.RenderBackend
	if serverHandler.Renderer != nil {
		backend = serverHandler.Renderer.Name()
	}

	aboutInfo := map[string]interface{}{
		"version":        build.Version,
		"renderBackend":  backend,
		"dpiOptions":     config.DPIOptions,
		"defaultDPI":     serverHandler.ServerConfig.DefaultDPI,
		"maxSafePages":   convert.MaxSafePages,
		"maxSafeDPI":     convert.MaxSafeDPI,
		"maxUploadMB":    serverHandler.ServerConfig.MaxUploadMB,
		"databaseType":   serverHandler.ServerConfig.DatabaseType,
		"jobHistory":     serverHandler.DB != nil,
		"activeSessions": serverHandler.Sessions.Len(),
	}

	return c.JSON(http.StatusOK, aboutInfo)
}

// Health reports that the server is up
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (serverHandler *ServerHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": build.Version,
	})
}
