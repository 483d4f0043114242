package webapp

import (
	"fmt"
	"net/url"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// DPIOptions mirrors the resolutions the server accepts
var DPIOptions = []int{150, 300, 600}

// GetAPIBaseURL returns the configured API base URL
// It reads from window.pdf2pngConfig.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	if !app.IsClient {
		return "" // Server-side rendering - use relative URLs
	}

	config := app.Window().Get("pdf2pngConfig")
	if config.Truthy() {
		apiURL := config.Get("apiURL")
		if apiURL.Truthy() {
			url := apiURL.String()
			// Ensure no trailing slash
			if len(url) > 0 && url[len(url)-1] == '/' {
				return url[:len(url)-1]
			}
			return url
		}
	}

	return ""
}

// GetDefaultDPI returns the server's default resolution from window.pdf2pngConfig
func GetDefaultDPI() int {
	if !app.IsClient {
		return 300
	}
	config := app.Window().Get("pdf2pngConfig")
	if config.Truthy() && config.Get("defaultDPI").Truthy() {
		return config.Get("defaultDPI").Int()
	}
	return 300
}

// BuildAPIURL constructs a full API URL from a path
// Example: BuildAPIURL("/api/sessions") -> "http://backend:8000/api/sessions"
// or just "/api/sessions" if using relative URLs
func BuildAPIURL(path string) string {
	baseURL := GetAPIBaseURL()
	if baseURL == "" {
		return path // Relative URL
	}
	return baseURL + path
}

func sessionPath(sessionID string) string {
	return "/api/sessions/" + url.PathEscape(sessionID)
}

// pageURL addresses one rendered page. version changes whenever the page set is re-rendered.
func pageURL(sessionID string, page int, version string, download bool) string {
	path := fmt.Sprintf("%s/pages/%d?v=%s", sessionPath(sessionID), page, url.QueryEscape(version))
	if download {
		path += "&download=1"
	}
	return BuildAPIURL(path)
}

func thumbnailURL(sessionID string, page int, version string) string {
	return BuildAPIURL(fmt.Sprintf("%s/pages/%d/thumbnail?v=%s", sessionPath(sessionID), page, url.QueryEscape(version)))
}

func archiveURL(sessionID, version string) string {
	return BuildAPIURL(fmt.Sprintf("%s/archive?v=%s", sessionPath(sessionID), url.QueryEscape(version)))
}

// PageInfo is one rendered page of a snapshot
type PageInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
}

// Snapshot is the session state returned by every session endpoint
type Snapshot struct {
	SessionID      string     `json:"sessionId"`
	State          string     `json:"state"`
	DocumentID     string     `json:"documentId,omitempty"`
	FileName       string     `json:"fileName,omitempty"`
	Stem           string     `json:"stem,omitempty"`
	PageCount      int        `json:"pageCount"`
	PageCountKnown bool       `json:"pageCountKnown"`
	RequestedDPI   int        `json:"requestedDPI"`
	EffectiveDPI   int        `json:"effectiveDPI"`
	Warning        string     `json:"warning,omitempty"`
	Error          string     `json:"error,omitempty"`
	Message        string     `json:"message,omitempty"`
	Pages          []PageInfo `json:"pages"`
	ArchiveName    string     `json:"archiveName,omitempty"`
	Enlarged       int        `json:"enlarged"`
	Renders        int        `json:"renders"`
}

// Ready reports whether there are pages to show
func (s Snapshot) Ready() bool {
	return s.State == "ready" && len(s.Pages) > 0
}

// renderVersion identifies the current page set for cache busting
func (s Snapshot) renderVersion() string {
	return fmt.Sprintf("%s-%d", s.DocumentID, s.EffectiveDPI)
}

// Job is one entry of the conversion history
type Job struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	Document     string `json:"document"`
	RequestedDPI int    `json:"requestedDPI"`
	EffectiveDPI int    `json:"effectiveDPI"`
	Pages        int    `json:"pages"`
	Message      string `json:"message"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
	CompletedAt  string `json:"completedAt,omitempty"`
	DurationMS   int64  `json:"durationMs"`
}

// fetchJSON calls the API and hands the status and JSON body text to onDone on the UI goroutine.
// options may be nil for a plain GET.
func fetchJSON(ctx app.Context, apiURL string, options app.Value, onDone func(ctx app.Context, status int, body string), onError func(ctx app.Context)) {
	ctx.Async(func() {
		var res app.Value
		if options == nil {
			res = app.Window().Call("fetch", apiURL)
		} else {
			res = app.Window().Call("fetch", apiURL, options)
		}

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]
			status := response.Get("status").Int()

			response.Call("text").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				body := ""
				if len(args) > 0 {
					body = args[0].String()
				}
				ctx.Dispatch(func(ctx app.Context) {
					onDone(ctx, status, body)
				})
				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				onError(ctx)
			})
			return nil
		}))
	})
}

// requestOptions builds the init object for fetch
func requestOptions(method string, body any, contentType string) app.Value {
	options := app.Window().Get("Object").New()
	options.Set("method", method)
	if body != nil {
		options.Set("body", body)
	}
	if contentType != "" {
		headers := app.Window().Get("Object").New()
		headers.Set("Content-Type", contentType)
		options.Set("headers", headers)
	}
	return options
}
