// routes.go - Route registration helpers
package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/snackpdf/converter/internal/history"
	"github.com/snackpdf/converter/internal/jobs"
	"github.com/snackpdf/converter/internal/resolver"
	"github.com/snackpdf/converter/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Converter   Converter
	Store       storage.Store
	Jobs        *jobs.Manager
	History     history.Recorder // optional
	UploadLimit func(format string) int
	AllowDelete bool
	Version     string
	Logger      *slog.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Convert ConvertHandler
	Files   FilesHandler
	History HistoryHandler
	JobFeed JobFeedHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	limit := deps.UploadLimit
	if limit == nil {
		limit = func(format string) int {
			if format == "html" {
				return 10
			}
			return 50
		}
	}
	return &Handlers{
		Health:  NewHealthHandler(deps.Version),
		Convert: NewConvertHandler(deps.Converter, deps.Store, deps.Jobs, deps.History, limit, deps.Logger),
		Files:   NewFilesHandler(deps.Store, deps.AllowDelete),
		History: NewHistoryHandler(deps.History, deps.Jobs),
		JobFeed: NewWebSocketHandler(deps.Jobs, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/health", handlers.Health.HandleHealth)

	// One conversion endpoint per resolver route
	for _, route := range resolver.Routes() {
		e.POST(route.Endpoint, handlers.Convert.HandleConvert(route))
	}

	filesGroup := e.Group("/api/files")
	filesGroup.GET("/recent", handlers.Files.HandleGetRecentFiles)
	filesGroup.GET("/:id", handlers.Files.HandleGetFile)
	filesGroup.GET("/:id/download", handlers.Files.HandleDownloadFile)
	filesGroup.DELETE("/:id", handlers.Files.HandleDeleteFile)

	e.GET("/api/jobs/:id", handlers.History.HandleGetJob)
	e.GET("/api/history", handlers.History.HandleGetHistory)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws/jobs", handlers.JobFeed.HandleJobFeed)
}

// IsConversionRoute reports whether path is one of the conversion endpoints.
func IsConversionRoute(path string) bool {
	for _, route := range resolver.Routes() {
		if route.Endpoint == path {
			return true
		}
	}
	return false
}

// SetupMiddleware installs the JSON error handler
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
