package webapp

import (
	"net/http"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Routes served by the App component
var Routes = []string{"/", "/history", "/about"}

// Handler returns an HTTP handler for the web app
func Handler() http.Handler {
	for _, route := range Routes {
		app.Route(route, func() app.Composer { return &App{} })
	}
	app.RunWhenOnBrowser()

	// app.wasm is served from /web/app.wasm by Echo
	return &app.Handler{
		Name:        "pdf2png",
		Title:       "pdf2png",
		Description: "Convert PDF pages into high-quality PNG images",
		Styles: []string{
			"/webapp/webapp.css",
		},
		Scripts: []string{
			"/config.js", // Load backend API configuration
		},
		RawHeaders: []string{
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		},
	}
}
