package webapp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutInfo represents the about information from the API
type AboutInfo struct {
	Version        string `json:"version"`
	RenderBackend  string `json:"renderBackend"`
	DPIOptions     []int  `json:"dpiOptions"`
	DefaultDPI     int    `json:"defaultDPI"`
	MaxSafePages   int    `json:"maxSafePages"`
	MaxSafeDPI     int    `json:"maxSafeDPI"`
	MaxUploadMB    int    `json:"maxUploadMB"`
	DatabaseType   string `json:"databaseType"`
	JobHistory     bool   `json:"jobHistory"`
	ActiveSessions int    `json:"activeSessions"`
}

// AboutPage displays information about the application
type AboutPage struct {
	app.Compo
	aboutInfo AboutInfo
	loading   bool
	error     string
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	a.loading = true
	fetchJSON(ctx, BuildAPIURL("/api/about"), nil, func(ctx app.Context, status int, body string) {
		if err := json.Unmarshal([]byte(body), &a.aboutInfo); err != nil {
			a.error = fmt.Sprintf("Failed to parse response: %v", err)
		}
		a.loading = false
		ctx.Update()
	}, func(ctx app.Context) {
		a.error = "Network error"
		a.loading = false
		ctx.Update()
	})
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	if a.loading {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About pdf2png"),
			app.Div().Class("loading").Body(app.Text("Loading...")),
		)
	}

	if a.error != "" {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About pdf2png"),
			app.Div().Class("error").Body(app.Text("Error: "+a.error)),
		)
	}

	return app.Div().Class("about-page").Body(
		app.H2().Text("About pdf2png"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("Application Information"),
				app.Div().Class("info-grid").Body(
					a.renderInfoItem("Version", a.aboutInfo.Version),
					a.renderInfoItem("Render Backend", a.getBackendDisplay()),
					a.renderInfoItem("Job History", a.getHistoryStatus()),
					a.renderInfoItem("Active Sessions", strconv.Itoa(a.aboutInfo.ActiveSessions)),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Conversion Settings"),
				app.Div().Class("config-details").Body(
					app.P().Body(
						app.Strong().Text("Resolutions: "),
						app.Text(a.getDPIOptions()),
					),
					app.P().Body(
						app.Strong().Text("Default Resolution: "),
						app.Text(fmt.Sprintf("%d DPI", a.aboutInfo.DefaultDPI)),
					),
					app.P().Body(
						app.Strong().Text("Upload Limit: "),
						app.Text(fmt.Sprintf("%d MB", a.aboutInfo.MaxUploadMB)),
					),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Memory Safety"),
				app.P().Text(a.getSafetyRule()),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("About pdf2png"),
				app.P().Text("pdf2png converts every page of a PDF into a PNG image, built with Go and WebAssembly."),
				app.P().Text("Pages can be downloaded one at a time or together as a ZIP archive."),
			),
		),
	)
}

// renderInfoItem creates an info item display
func (a *AboutPage) renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

// getBackendDisplay returns a user-friendly render backend name
func (a *AboutPage) getBackendDisplay() string {
	switch a.aboutInfo.RenderBackend {
	case "pdfium":
		return "PDFium (WebAssembly)"
	case "fitz", "mupdf":
		return "MuPDF"
	default:
		return a.aboutInfo.RenderBackend
	}
}

// getHistoryStatus describes the job history database
func (a *AboutPage) getHistoryStatus() string {
	if !a.aboutInfo.JobHistory {
		return "Disabled"
	}
	switch a.aboutInfo.DatabaseType {
	case "postgres":
		return "PostgreSQL"
	case "ephemeral":
		return "Ephemeral PostgreSQL"
	case "sqlite":
		return "SQLite"
	default:
		return a.aboutInfo.DatabaseType
	}
}

func (a *AboutPage) getDPIOptions() string {
	parts := make([]string, 0, len(a.aboutInfo.DPIOptions))
	for _, dpi := range a.aboutInfo.DPIOptions {
		parts = append(parts, strconv.Itoa(dpi))
	}
	return strings.Join(parts, ", ") + " DPI"
}

func (a *AboutPage) getSafetyRule() string {
	return fmt.Sprintf("Documents with more than %d pages are converted at %d DPI at most.",
		a.aboutInfo.MaxSafePages, a.aboutInfo.MaxSafeDPI)
}
