package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/snackpdf/converter/internal/history"
	"github.com/snackpdf/converter/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func seededHistory(t *testing.T) *memoryHistory {
	t.Helper()
	h := &memoryHistory{}
	ctx := context.Background()
	require.NoError(t, h.Record(ctx, history.Entry{ID: "1", Endpoint: "/api/word_to_pdf", SourceName: "a.docx", Outcome: history.OutcomeSuccess}))
	require.NoError(t, h.Record(ctx, history.Entry{ID: "2", Endpoint: "/api/word_to_pdf", SourceName: "b.doc", Outcome: history.OutcomeError, Error: "legacy"}))
	return h
}

func TestHistoryHandler_JSON(t *testing.T) {
	h := NewHistoryHandler(seededHistory(t), jobs.NewManager(nil))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/history?limit=1", nil), rec)

	require.NoError(t, h.HandleGetHistory(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "2", resp.Entries[0].ID)
	assert.Len(t, resp.Stats, 2)
}

func TestHistoryHandler_Msgpack(t *testing.T) {
	for _, tt := range []struct {
		name   string
		target string
		accept string
	}{
		{"accept header", "/api/history", "application/msgpack"},
		{"query parameter", "/api/history?format=msgpack", ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistoryHandler(seededHistory(t), jobs.NewManager(nil))

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set(echo.HeaderAccept, tt.accept)
			}
			rec := httptest.NewRecorder()
			require.NoError(t, h.HandleGetHistory(e.NewContext(req, rec)))

			assert.Equal(t, "application/msgpack", rec.Header().Get(echo.HeaderContentType))
			var resp historyResponse
			require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Entries, 2)
			assert.Equal(t, "legacy", resp.Entries[0].Error)
		})
	}
}

func TestHistoryHandler_Disabled(t *testing.T) {
	h := NewHistoryHandler(nil, jobs.NewManager(nil))

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/history", nil), httptest.NewRecorder())

	err := h.HandleGetHistory(c)
	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected APIError, got %T", err)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestHistoryHandler_GetJob(t *testing.T) {
	mgr := jobs.NewManager(nil)
	job := mgr.Start("/api/zip_to_pdf", "photos.zip", 10)
	h := NewHistoryHandler(nil, mgr)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID, nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(job.ID)
	require.NoError(t, h.HandleGetJob(c))
	assert.Contains(t, rec.Body.String(), `"status":"processing"`)
	assert.Contains(t, rec.Body.String(), `"fileName":"photos.zip"`)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")
	err := h.HandleGetJob(c)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, NewHealthHandler("1.2.3").HandleHealth(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/health", nil), rec)))

	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
	assert.Contains(t, rec.Body.String(), `/api/html_to_pdf`)
}

func TestJobFeed(t *testing.T) {
	mgr := jobs.NewManager(nil)
	e := echo.New()
	RegisterWebSocketRoutes(e, &Handlers{JobFeed: NewWebSocketHandler(mgr, nil)})

	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/jobs"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg WSMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, MsgTypeConnected, msg.Type)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypePing}))
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, MsgTypePong, msg.Type)

	job := mgr.Start("/api/excel_to_pdf", "totals.xlsx", 42)
	mgr.Complete(job.ID, "file-1", 99)

	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, MsgTypeJob, msg.Type)
	require.NotNil(t, msg.Job)
	assert.Equal(t, jobs.StatusProcessing, msg.Job.Status)

	require.NoError(t, ws.ReadJSON(&msg))
	require.NotNil(t, msg.Job)
	assert.Equal(t, jobs.StatusComplete, msg.Job.Status)
	assert.Equal(t, "file-1", msg.Job.FileID)
}
