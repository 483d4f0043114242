//go:build js && wasm
// +build js,wasm

package main

import (
	"github.com/drummonds/pdf2png/webapp"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

func main() {
	// Register routes for the client-side app, all use the App component with the navbar
	for _, route := range webapp.Routes {
		app.Route(route, func() app.Composer { return &webapp.App{} })
	}

	// This main function is for the WASM build only
	app.RunWhenOnBrowser()
}
