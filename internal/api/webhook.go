package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/vani/internal/protocol"
)

// webhookPayload is the post-call notification sent by the speech platform.
type webhookPayload struct {
	Event string      `json:"event"`
	Call  webhookCall `json:"call"`
}

type webhookCall struct {
	CallID         string `json:"call_id"`
	StartTimestamp *int64 `json:"start_timestamp"` // ms
	EndTimestamp   *int64 `json:"end_timestamp"`   // ms
	DurationMS     *int64 `json:"duration_ms"`
}

// durationSeconds prefers the reported duration and falls back to the
// start/end timestamps.
func (c webhookCall) durationSeconds() int64 {
	switch {
	case c.DurationMS != nil:
		return *c.DurationMS / 1000
	case c.StartTimestamp != nil && c.EndTimestamp != nil && *c.EndTimestamp >= *c.StartTimestamp:
		return (*c.EndTimestamp - *c.StartTimestamp) / 1000
	default:
		return 0
	}
}

func (s *Server) handleRetellWebhook(w http.ResponseWriter, r *http.Request) {
	var p webhookPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid payload"})
		return
	}
	callID := protocol.CallID(p.Call.CallID)

	switch p.Event {
	case "call_ended":
		if callID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "call.call_id is required"})
			return
		}
		seconds := p.Call.durationSeconds()
		tickets, err := s.store.SetCallDuration(r.Context(), callID, seconds)
		if err != nil {
			slog.Error("set call duration failed", "call_id", callID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "internal error"})
			return
		}
		if len(tickets) == 0 {
			slog.Info("call ended without grievances", "call_id", callID, "duration_seconds", seconds)
		} else {
			slog.Info("call duration recorded", "call_id", callID, "duration_seconds", seconds, "tickets", tickets)
		}
		if tickets == nil {
			tickets = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":          true,
			"message":          "Call duration updated",
			"call_id":          callID,
			"duration_seconds": seconds,
			"tickets":          tickets,
		})
	case "call_started":
		slog.Info("call started", "call_id", callID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Call start acknowledged", "call_id": callID})
	case "call_analyzed":
		slog.Info("call analyzed", "call_id", callID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Call analysis acknowledged", "call_id": callID})
	default:
		slog.Warn("unknown webhook event", "event", p.Event)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Event " + p.Event + " acknowledged but not processed"})
	}
}
