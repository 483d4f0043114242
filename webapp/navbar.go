package webapp

import (
	"fmt"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Version info - can be set at build time with -ldflags
var (
	Version   = "dev"
	BuildDate = ""
)

// NavBar is the navigation bar component
type NavBar struct {
	app.Compo
}

// Render renders the navigation bar
func (n *NavBar) Render() app.UI {
	return app.Nav().
		Class("navbar").
		Body(
			app.Div().Class("navbar-brand").Body(
				app.H1().Text("pdf2png"),
				app.Span().Class("version-info").Body(
					app.Text(versionInfo(Version, BuildDate, time.Now())),
				),
			),
			app.Div().Class("navbar-menu").Body(
				app.A().
					Href("/").
					Class("navbar-item").
					Body(app.Text("Convert")),
				app.A().
					Href("/history").
					Class("navbar-item").
					Body(app.Text("History")),
				app.A().
					Href("/about").
					Class("navbar-item").
					Body(app.Text("About")),
			),
		)
}

// versionInfo returns formatted version and date information
func versionInfo(version, buildDate string, now time.Time) string {
	if buildDate == "" {
		buildDate = now.Format("2006-01-02")
	}
	return fmt.Sprintf("%s | %s", version, buildDate)
}
