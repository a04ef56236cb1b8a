package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MikeSquared-Agency/vani/internal/events"
)

// Broadcast waits on the slowest observer, so keep this well under a turn.
const observerWriteTimeout = time.Second

// WSObserver streams events to a dashboard websocket.
type WSObserver struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSObserver(conn *websocket.Conn) *WSObserver {
	return &WSObserver{conn: conn}
}

// wireEvent is the dashboard shape: {event, data}.
type wireEvent struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func (o *WSObserver) Send(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(wireEvent{Event: e.Event, Data: e.Data})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	deadline := time.Now().Add(observerWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return o.conn.WriteMessage(websocket.TextMessage, payload)
}

func (o *WSObserver) Close() error {
	return o.conn.Close()
}

var dashboardUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeDashboard upgrades a dashboard connection and registers it until the
// client goes away. Anything the client sends is discarded.
func (h *Hub) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	conn, err := dashboardUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("dashboard upgrade failed", "error", err)
		return
	}
	obs := NewWSObserver(conn)
	unregister := h.Register(obs)
	slog.Info("dashboard connected", "observers", h.Len())

	defer func() {
		unregister()
		_ = obs.Close()
		slog.Info("dashboard disconnected", "observers", h.Len())
	}()

	conn.SetReadLimit(4096)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
