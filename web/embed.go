// Package web holds the dashboard's templates and browser assets.
package web

import (
	"embed"
	"io/fs"
)

// Templates embeds the layouts, partials and pages parsed by the view engine.
//
//go:embed templates/**/*.html
var Templates embed.FS

//go:embed static/**/*
var static embed.FS

// Static returns the assets rooted at static/, as served under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(static, "static")
}
