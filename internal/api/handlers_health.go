// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/snackpdf/converter/internal/resolver"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
	}
}

// HandleHealth returns server health status and the conversion routes it serves
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	routes := resolver.Routes()
	endpoints := make([]string, len(routes))
	for i, r := range routes {
		endpoints[i] = r.Endpoint
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"endpoints": endpoints,
	})
}
