// Package main runs the Linkie URL shortener.
//
//	@title			Linkie URL Shortener API
//	@version		1.0
//	@description	Shortens URLs, renders QR codes and redirects short codes to their destinations.
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http https
package main

import (
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	_ "github.com/sp3dr4/linkie/docs"
	linkiefx "github.com/sp3dr4/linkie/internal/fx"
)

func main() {
	fx.New(
		linkiefx.HTTPServerModules,
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
	).Run()
}
