// Package web holds the monitor dashboard, a single static page that polls
// the monitor's JSON API.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DevModeEnv names the environment variable that makes the monitor serve
// the dashboard from the source tree instead of the embedded copy.
const DevModeEnv = "CACHESIM_MONITOR_DEV"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the file system the dashboard is served from.
func GetAssets() http.FileSystem {
	if devMode() {
		dir := sourceDistDir()
		fmt.Fprintf(os.Stderr,
			"Monitor in development mode, serving assets from %s\n", dir)

		return http.Dir(dir)
	}

	dist, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

func devMode() bool {
	v := os.Getenv(DevModeEnv)
	return v == "1" || strings.EqualFold(v, "true")
}

func sourceDistDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the dashboard sources")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}
