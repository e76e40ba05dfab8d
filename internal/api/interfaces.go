// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"io"

	"github.com/labstack/echo/v4"
	"github.com/snackpdf/converter/internal/converter"
	"github.com/snackpdf/converter/internal/resolver"
)

// Converter renders an uploaded document as PDF
type Converter interface {
	ConvertToPDF(doc *converter.Document, opts converter.Options, output io.Writer) error
}

// ConvertHandler handles the conversion endpoints
type ConvertHandler interface {
	HandleConvert(route resolver.Route) echo.HandlerFunc
}

// FilesHandler handles converted file operations
type FilesHandler interface {
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDownloadFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// HistoryHandler handles conversion history and job lookups
type HistoryHandler interface {
	HandleGetHistory(c echo.Context) error
	HandleGetJob(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// JobFeedHandler streams job updates over a websocket
type JobFeedHandler interface {
	HandleJobFeed(c echo.Context) error
}
