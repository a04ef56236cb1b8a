package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MikeSquared-Agency/vani/internal/events"
)

func TestServeDashboard_ReceivesEvents(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeDashboard))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Len() != 1 {
		t.Fatalf("expected 1 observer, got %d", h.Len())
	}

	h.Broadcast(context.Background(), events.New(events.TypeNewGrievance, "c1", map[string]any{"ticket_id": "DEL-ABC123"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["event"] != events.TypeNewGrievance {
		t.Errorf("expected NEW_GRIEVANCE, got %v", got["event"])
	}
	if d, _ := got["data"].(map[string]any); d["ticket_id"] != "DEL-ABC123" {
		t.Errorf("expected ticket in data, got %v", got["data"])
	}
	if len(got) != 2 {
		t.Errorf("expected only event and data keys, got %v", got)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for h.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Len() != 0 {
		t.Errorf("expected observer removed after disconnect, got %d", h.Len())
	}
}
