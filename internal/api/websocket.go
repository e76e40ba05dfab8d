package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/snackpdf/converter/internal/jobs"
)

// WebSocket message types for the job feed
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeJob       = "job"
	MsgTypePong      = "pong"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsPongWait   = 2 * wsPingPeriod
)

// WSMessage is a job feed message
type WSMessage struct {
	Type      string    `json:"type"`
	Job       *jobs.Job `json:"job,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// WebSocketHandler pushes job updates to connected clients
type WebSocketHandler struct {
	jobs     *jobs.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new job feed handler
func NewWebSocketHandler(jobMgr *jobs.Manager, logger *slog.Logger) JobFeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		jobs: jobMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// the landing page may be served from a dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		logger: logger.With("component", "jobfeed"),
	}
}

// HandleJobFeed upgrades the connection and streams job snapshots until the
// client goes away. ?job=<id> limits the feed to one job.
func (wsh *WebSocketHandler) HandleJobFeed(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	only := c.QueryParam("job")
	events, cancel := wsh.jobs.Subscribe()
	defer cancel()

	wsh.logger.Debug("client connected", "remote", c.RealIP(), "job", only)

	pings := make(chan struct{}, 1)
	done := make(chan struct{})
	go wsh.readLoop(ws, pings, done)

	if err := wsh.send(ws, WSMessage{Type: MsgTypeConnected}); err != nil {
		return nil
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			wsh.logger.Debug("client disconnected", "remote", c.RealIP())
			return nil

		case job, ok := <-events:
			if !ok {
				return nil
			}
			if only != "" && job.ID != only {
				continue
			}
			if err := wsh.send(ws, WSMessage{Type: MsgTypeJob, Job: &job}); err != nil {
				return nil
			}

		case <-pings:
			if err := wsh.send(ws, WSMessage{Type: MsgTypePong}); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}

// readLoop handles client messages; it closes done when the connection ends.
func (wsh *WebSocketHandler) readLoop(ws *websocket.Conn, pings chan<- struct{}, done chan<- struct{}) {
	defer close(done)

	ws.SetReadLimit(4 * 1024)
	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				wsh.logger.Debug("connection error", "error", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(wsPongWait))

		if msg.Type == MsgTypePing {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}

func (wsh *WebSocketHandler) send(ws *websocket.Conn, msg WSMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return ws.WriteJSON(msg)
}
