package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

const sessionStorageKey = "pdf2png-session"

// ConvertPage uploads a PDF, picks a resolution and shows the rendered pages
type ConvertPage struct {
	app.Compo
	snapshot   Snapshot
	defaultDPI int
	busy       string
	netError   string
}

// OnMount restores the browser's session or starts a new one
func (p *ConvertPage) OnMount(ctx app.Context) {
	p.defaultDPI = GetDefaultDPI()
	p.snapshot.RequestedDPI = p.defaultDPI

	var sessionID string
	ctx.LocalStorage().Get(sessionStorageKey, &sessionID)
	if sessionID == "" {
		p.createSession(ctx)
		return
	}

	fetchJSON(ctx, BuildAPIURL(sessionPath(sessionID)), nil, func(ctx app.Context, status int, body string) {
		if status == http.StatusNotFound {
			// expired on the server
			p.createSession(ctx)
			return
		}
		p.applySnapshot(ctx, status, body)
	}, p.onNetworkError)
}

// createSession asks the server for a fresh session
func (p *ConvertPage) createSession(ctx app.Context) {
	fetchJSON(ctx, BuildAPIURL("/api/sessions"), requestOptions(http.MethodPost, nil, ""), func(ctx app.Context, status int, body string) {
		p.applySnapshot(ctx, status, body)
		if p.snapshot.SessionID != "" {
			ctx.LocalStorage().Set(sessionStorageKey, p.snapshot.SessionID)
		}
	}, p.onNetworkError)
}

// applySnapshot replaces the local state with the server's answer
func (p *ConvertPage) applySnapshot(ctx app.Context, status int, body string) {
	p.busy = ""
	p.netError = ""

	var snap Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		p.netError = fmt.Sprintf("Unexpected response (status: %d)", status)
		ctx.Update()
		return
	}
	if snap.SessionID == "" {
		// error bodies only carry {"error": ...}
		p.netError = snap.Error
		if p.netError == "" {
			p.netError = fmt.Sprintf("Request failed (status: %d)", status)
		}
		ctx.Update()
		return
	}
	p.snapshot = snap
	ctx.Update()
}

func (p *ConvertPage) onNetworkError(ctx app.Context) {
	p.busy = ""
	p.netError = "Network error: Could not connect to server"
	ctx.Update()
}

// onFileChange uploads the chosen PDF
func (p *ConvertPage) onFileChange(ctx app.Context, e app.Event) {
	files := ctx.JSSrc().Get("files")
	if !files.Truthy() || files.Get("length").Int() == 0 {
		return
	}
	file := files.Index(0)
	name := file.Get("name").String()

	formData := app.Window().Get("FormData").New()
	formData.Call("append", "file", file)
	// choosing the same file again must still fire change
	ctx.JSSrc().Set("value", "")

	p.busy = fmt.Sprintf("Converting '%s' at %d DPI...", name, p.snapshot.RequestedDPI)
	ctx.Update()

	apiURL := BuildAPIURL(sessionPath(p.snapshot.SessionID) + "/document")
	fetchJSON(ctx, apiURL, requestOptions(http.MethodPost, formData, ""), p.afterUpload, p.onNetworkError)
}

func (p *ConvertPage) afterUpload(ctx app.Context, status int, body string) {
	if status == http.StatusNotFound {
		p.busy = ""
		p.netError = "Your session expired, please upload the file again."
		p.createSession(ctx)
		return
	}
	if status == http.StatusRequestEntityTooLarge {
		p.busy = ""
		p.netError = "The file is larger than the server accepts."
		ctx.Update()
		return
	}
	p.applySnapshot(ctx, status, body)
}

// onDPIChange re-renders the current document when its effective resolution changes
func (p *ConvertPage) onDPIChange(ctx app.Context, e app.Event) {
	dpi, err := strconv.Atoi(ctx.JSSrc().Get("value").String())
	if err != nil {
		return
	}
	if p.snapshot.State == "ready" {
		p.busy = fmt.Sprintf("Converting '%s' at %d DPI...", p.snapshot.FileName, dpi)
	}
	p.snapshot.RequestedDPI = dpi
	ctx.Update()

	apiURL := BuildAPIURL(fmt.Sprintf("%s/dpi?dpi=%d", sessionPath(p.snapshot.SessionID), dpi))
	fetchJSON(ctx, apiURL, requestOptions(http.MethodPut, nil, ""), p.applySnapshot, p.onNetworkError)
}

func (p *ConvertPage) onRemoveClick(ctx app.Context, e app.Event) {
	apiURL := BuildAPIURL(sessionPath(p.snapshot.SessionID) + "/document")
	fetchJSON(ctx, apiURL, requestOptions(http.MethodDelete, nil, ""), p.applySnapshot, p.onNetworkError)
}

func (p *ConvertPage) onEnlargeClick(page int) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		apiURL := BuildAPIURL(fmt.Sprintf("%s/enlarge/%d", sessionPath(p.snapshot.SessionID), page))
		fetchJSON(ctx, apiURL, requestOptions(http.MethodPost, nil, ""), p.applySnapshot, p.onNetworkError)
	}
}

func (p *ConvertPage) onCloseClick(ctx app.Context, e app.Event) {
	apiURL := BuildAPIURL(sessionPath(p.snapshot.SessionID) + "/enlarge")
	fetchJSON(ctx, apiURL, requestOptions(http.MethodDelete, nil, ""), p.applySnapshot, p.onNetworkError)
}

// Render renders the convert page
func (p *ConvertPage) Render() app.UI {
	return app.Div().
		Class("convert-page").
		Body(
			app.H2().Text("PDF to High-Quality PNG Converter"),
			app.Div().Class("convert-layout").Body(
				p.renderSettings(),
				app.Div().Class("convert-results").Body(
					p.renderBanners(),
					p.renderResults(),
				),
			),
			p.renderModal(),
		)
}

// renderSettings renders the upload and resolution panel
func (p *ConvertPage) renderSettings() app.UI {
	selected := p.snapshot.RequestedDPI
	if selected == 0 {
		selected = p.defaultDPI
	}

	options := make([]app.UI, 0, len(DPIOptions))
	for _, dpi := range DPIOptions {
		options = append(options, app.Option().
			Value(strconv.Itoa(dpi)).
			Selected(dpi == selected).
			Text(strconv.Itoa(dpi)))
	}

	return app.Aside().Class("settings-panel").Body(
		app.H3().Text("Settings"),
		app.Label().For("pdf-file").Text("Upload a PDF"),
		app.Input().
			ID("pdf-file").
			Type("file").
			Accept("application/pdf,.pdf").
			Disabled(p.busy != "" || p.snapshot.SessionID == "").
			OnChange(p.onFileChange),
		app.Label().For("dpi-select").Text("Resolution (DPI)"),
		app.Select().
			ID("dpi-select").
			Disabled(p.busy != "" || p.snapshot.SessionID == "").
			OnChange(p.onDPIChange).
			Body(options...),
		app.P().Class("settings-help").Text("Higher DPI means higher quality and longer conversion time."),
		app.If(p.snapshot.FileName != "", func() app.UI {
			return app.Div().Class("current-document").Body(
				app.Span().Text(p.snapshot.FileName),
				app.Button().
					Class("btn-secondary").
					Disabled(p.busy != "").
					OnClick(p.onRemoveClick).
					Text("Remove"),
			)
		}),
		app.Hr(),
		app.P().Text("This app converts your PDF into high-quality PNG images."),
	)
}

// renderBanners renders the status banners for the current snapshot
func (p *ConvertPage) renderBanners() app.UI {
	return app.Div().Class("banners").Body(
		app.If(p.busy != "", func() app.UI {
			return app.Div().Class("banner banner-info loading").Text(p.busy)
		}),
		app.If(p.netError != "", func() app.UI {
			return app.Div().Class("banner banner-error").Text(p.netError)
		}),
		app.If(p.snapshot.Warning != "", func() app.UI {
			return app.Div().Class("banner banner-warning").Text(p.snapshot.Warning)
		}),
		app.If(p.snapshot.Error != "", func() app.UI {
			return app.Div().Class("banner banner-error").Text(p.snapshot.Error)
		}),
		app.If(p.snapshot.Ready() && p.snapshot.Message != "", func() app.UI {
			return app.Div().Class("banner banner-success").Text(p.snapshot.Message)
		}),
		app.If(p.showUploadPrompt(), func() app.UI {
			return app.Div().Class("banner banner-info").Text("Please upload a PDF file using the settings panel to begin.")
		}),
	)
}

// showUploadPrompt reports whether the idle hint should be visible
func (p *ConvertPage) showUploadPrompt() bool {
	return p.busy == "" && p.snapshot.State != "ready" && p.snapshot.Error == ""
}

// renderResults renders the ZIP button and the page grid
func (p *ConvertPage) renderResults() app.UI {
	if !p.snapshot.Ready() {
		return app.Div()
	}
	version := p.snapshot.renderVersion()

	cards := make([]app.UI, 0, len(p.snapshot.Pages))
	for _, page := range p.snapshot.Pages {
		cards = append(cards, p.renderPageCard(page, version))
	}

	return app.Div().Class("results").Body(
		app.A().
			Class("btn-primary btn-block").
			Href(archiveURL(p.snapshot.SessionID, version)).
			Attr("download", p.snapshot.ArchiveName).
			Text("Download All Pages as .ZIP"),
		app.Hr(),
		app.H3().Text("Individual Page Downloads"),
		app.Div().Class("page-grid").Body(cards...),
	)
}

// renderPageCard renders one page with its Enlarge and Download buttons
func (p *ConvertPage) renderPageCard(page PageInfo, version string) app.UI {
	return app.Div().Class("page-card").Body(
		app.Img().
			Class("page-thumbnail").
			Src(thumbnailURL(p.snapshot.SessionID, page.Number, version)).
			Alt(page.Name),
		app.Div().Class("page-caption").Text(fmt.Sprintf("Page %d", page.Number)),
		app.Div().Class("page-actions").Body(
			app.Button().
				Class("btn-secondary").
				OnClick(p.onEnlargeClick(page.Number)).
				Text("Enlarge"),
			app.A().
				Class("btn-primary").
				Href(pageURL(p.snapshot.SessionID, page.Number, version, true)).
				Attr("download", page.Name).
				Text("Download"),
		),
	)
}

// renderModal renders the enlarged page, if any
func (p *ConvertPage) renderModal() app.UI {
	if p.snapshot.Enlarged == 0 || !p.snapshot.Ready() {
		return app.Div()
	}
	page := p.snapshot.Enlarged

	return app.Div().Class("modal-backdrop").Body(
		app.Div().Class("modal").Body(
			app.H3().Text("Enlarged Image"),
			app.Img().
				Class("modal-image").
				Src(pageURL(p.snapshot.SessionID, page, p.snapshot.renderVersion(), false)).
				Alt(fmt.Sprintf("Page %d", page)),
			app.Div().Class("page-caption").Text(fmt.Sprintf("Page %d", page)),
			app.Button().
				Class("btn-primary").
				OnClick(p.onCloseClick).
				Text("Close"),
		),
	)
}
