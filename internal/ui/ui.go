// Package ui serves the touchscreen web UI bundle.
//
// The bundle is compiled into the binary via go:embed so the gateway ships
// as a single file. A filesystem directory can be configured instead for
// UI development, where assets change without recompiling the daemon.
package ui

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
)

//go:embed web/*
var content embed.FS

// Handler returns the http.Handler serving the UI.
//
// When dir names an existing directory its contents are served (dev mode);
// otherwise the embedded bundle is used. Unknown paths fall back to
// index.html with status 200 so client-side routing keeps working.
func Handler(dir string) http.Handler {
	fileSystem := assets(dir)
	fileServer := http.FileServer(fileSystem)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// index.html and unhashed assets must not be cached across deploys.
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		upath := path.Clean(r.URL.Path)
		if upath == "." || upath == "/" {
			r.URL.Path = "/"
			fileServer.ServeHTTP(w, r)
			return
		}

		f, err := fileSystem.Open(upath[1:])
		if err != nil {
			// SPA fallback
			r.URL.Path = "/"
			fileServer.ServeHTTP(w, r)
			return
		}
		f.Close()

		fileServer.ServeHTTP(w, r)
	})
}

// assets selects the dev directory when it exists, the embedded bundle
// otherwise.
func assets(dir string) http.FileSystem {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return http.Dir(dir)
		}
	}

	webFS, err := fs.Sub(content, "web")
	if err != nil {
		panic(fmt.Sprintf("ui: embedded web assets missing: %v", err))
	}
	return http.FS(webFS)
}
