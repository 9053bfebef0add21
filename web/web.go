// Package web holds the embedded page templates and static assets of the proxy.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

func Templates() (fs.FS, error) {
	return fs.Sub(files, "templates")
}

func Static() (fs.FS, error) {
	return fs.Sub(files, "static")
}
