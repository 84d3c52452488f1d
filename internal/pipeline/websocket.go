package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tab-and-Quill/spotify-music-history/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	defaultMaxMessageSize = 1024 * 1024
)

// Endpoint serves the message protocol over a WebSocket. Every connection gets
// its own Worker, so requests on one connection are answered in order.
type Endpoint struct {
	ingest         Ingester
	query          Querier
	maxMessageSize int64
	upgrader       websocket.Upgrader
}

// NewEndpoint creates the /v1/ws endpoint. Cross-origin connections are accepted.
// A message larger than maxMessageBytes closes the connection, matching the
// body limit of POST /v1/files.
func NewEndpoint(ingest Ingester, query Querier, maxMessageBytes int64) *Endpoint {
	if maxMessageBytes <= 0 {
		maxMessageBytes = defaultMaxMessageSize
	}
	return &Endpoint{
		ingest:         ingest,
		query:          query,
		maxMessageSize: maxMessageBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers GET /v1/ws.
func (e *Endpoint) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/ws", e.Handle)
}

// Handle upgrades the connection and pumps messages until either side closes.
func (e *Endpoint) Handle(c *gin.Context) {
	conn, err := e.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("[WebSocket] Upgrade failed", "error", err)
		return
	}
	metrics.TrackWebSocket(true)
	defer metrics.TrackWebSocket(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorker(e.ingest, e.query, 0)
	go worker.Run(ctx)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		// A failed write closes the connection, which unblocks readPump.
		defer conn.Close()
		writePump(conn, worker.Responses())
	}()

	readPump(ctx, conn, worker, e.maxMessageSize)
	cancel()
	<-writerDone
}

func readPump(ctx context.Context, conn *websocket.Conn, worker *Worker, limit int64) {
	conn.SetReadLimit(limit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				slog.Warn("[WebSocket] Message exceeds size limit", "limit_bytes", limit)
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("[WebSocket] Unexpected close", "error", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			req = Request{Type: "invalid"}
		}
		if _, err := worker.Submit(ctx, req); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, responses <-chan Response) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case resp, ok := <-responses:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(resp)
			if err != nil {
				slog.Error("[WebSocket] Failed to encode response", "id", resp.ID, "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Warn("[WebSocket] Write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
