// handlers_history.go - Conversion history and job status handlers
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/snackpdf/converter/internal/history"
	"github.com/snackpdf/converter/internal/jobs"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	mimeMsgpack         = "application/msgpack"
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryHandlerImpl implements the HistoryHandler interface
type HistoryHandlerImpl struct {
	history history.Recorder
	jobs    *jobs.Manager
}

// NewHistoryHandler creates a new history handler. history may be nil.
func NewHistoryHandler(rec history.Recorder, jobMgr *jobs.Manager) HistoryHandler {
	return &HistoryHandlerImpl{history: rec, jobs: jobMgr}
}

type historyResponse struct {
	Entries []history.Entry `json:"entries" msgpack:"entries"`
	Stats   []history.Stat  `json:"stats" msgpack:"stats"`
}

// HandleGetHistory returns recent conversions and per-endpoint counts.
// Clients asking for msgpack get the same document msgpack-encoded.
func (h *HistoryHandlerImpl) HandleGetHistory(c echo.Context) error {
	if h.history == nil {
		return NewServiceUnavailableError("conversion history is disabled")
	}

	ctx := c.Request().Context()
	entries, err := h.history.Recent(ctx, queryLimit(c, defaultHistoryLimit, maxHistoryLimit))
	if err != nil {
		return NewInternalError("failed to read history", err)
	}
	stats, err := h.history.Stats(ctx)
	if err != nil {
		return NewInternalError("failed to read history stats", err)
	}
	if stats == nil {
		stats = []history.Stat{}
	}
	resp := historyResponse{Entries: entries, Stats: stats}

	if wantsMsgpack(c) {
		data, err := msgpack.Marshal(resp)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, mimeMsgpack, data)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleGetJob returns the state of a conversion job
func (h *HistoryHandlerImpl) HandleGetJob(c echo.Context) error {
	id := c.Param("id")
	job, ok := h.jobs.Get(id)
	if !ok {
		return NewNotFoundError("job", id)
	}
	return c.JSON(http.StatusOK, job)
}

func wantsMsgpack(c echo.Context) bool {
	if c.QueryParam("format") == "msgpack" {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack)
}
