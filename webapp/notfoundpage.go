package webapp

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// sitePage is a route the UI actually serves
type sitePage struct {
	Path  string
	Title string
	Hint  string
}

var sitePages = []sitePage{
	{Path: "/", Title: "Convert", Hint: "upload a PDF and get one PNG per page"},
	{Path: "/history", Title: "History", Hint: "recent conversions and batch runs"},
	{Path: "/about", Title: "About", Hint: "render backend and resolution limits"},
}

// NotFoundPage is shown for any path outside sitePages
type NotFoundPage struct {
	app.Compo
	path string
}

func (p *NotFoundPage) OnNav(ctx app.Context) {
	p.path = ctx.Page().URL().Path
}

func notFoundMessage(path string) string {
	if path == "" {
		return "There is nothing to convert here."
	}
	return "There is nothing to convert at " + path + "."
}

func (p *NotFoundPage) Render() app.UI {
	links := make([]app.UI, 0, len(sitePages))
	for _, page := range sitePages {
		links = append(links, app.Li().Body(
			app.A().Href(page.Path).Text(page.Title),
			app.Text(" - "+page.Hint),
		))
	}
	return app.Div().
		Class("not-found-page").
		Body(
			app.H1().Class("not-found-title").Text("No such page"),
			app.P().Text(notFoundMessage(p.path)),
			app.Ul().Class("not-found-links").Body(links...),
		)
}
