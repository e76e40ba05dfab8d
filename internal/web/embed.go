// Package web serves the embedded landing page and tool pages.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/snackpdf/converter/internal/resolver"
)

//go:embed dist/*
var staticFiles embed.FS

const indexName = "index.html"

// GetFileSystem returns the embedded filesystem with the dist folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

type pageData struct {
	Routes  []resolver.Route
	Current resolver.Route
}

// RegisterStaticRoutes registers the static file routes with Echo.
// The API routes should be registered before calling this function.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}
	index, err := template.ParseFS(staticFS, indexName)
	if err != nil {
		return err
	}

	fileServer := http.FileServer(http.FS(staticFS))

	e.GET("/*", func(c echo.Context) error {
		requestPath := path.Clean(c.Request().URL.Path)

		// unknown API paths get a JSON 404, not the page
		if strings.HasPrefix(requestPath, "/api/") || requestPath == "/api" {
			return echo.ErrNotFound
		}

		name := strings.TrimPrefix(requestPath, "/")
		if name == "" || name == indexName {
			return renderIndex(c, index, requestPath)
		}

		stat, err := fs.Stat(staticFS, name)
		if err != nil || stat.IsDir() {
			// tool pages such as /word_to_pdf render the index for that page
			return renderIndex(c, index, requestPath)
		}

		fileServer.ServeHTTP(c.Response(), c.Request())
		return nil
	})

	return nil
}

// renderIndex renders the landing page with the upload form of the page at pagePath.
func renderIndex(c echo.Context, index *template.Template, pagePath string) error {
	var buf bytes.Buffer
	data := pageData{Routes: resolver.Routes(), Current: resolver.Resolve(pagePath)}
	if err := index.Execute(&buf, data); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render page")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// HasEmbeddedFiles returns true if the landing page is embedded.
func HasEmbeddedFiles() bool {
	_, err := fs.Stat(staticFiles, "dist/"+indexName)
	return err == nil
}
