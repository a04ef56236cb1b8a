package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is the notification pushed to dashboard observers and other sinks.
// Observers only rely on Event and Data; the remaining fields are envelope
// metadata for downstream consumers.
type Event struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	EventID   string         `json:"event_id,omitempty"`
	CallID    string         `json:"call_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Known event names.
const (
	TypeNewGrievance         = "NEW_GRIEVANCE"
	TypeEmergencyAlert       = "EMERGENCY_ALERT"
	TypeGrievanceEscalated   = "GRIEVANCE_ESCALATED"
	TypeFeedbackRecorded     = "FEEDBACK_RECORDED"
	TypeCallTranscriptStored = "CALL_TRANSCRIPT_STORED"
)

// New builds an event with a fresh id and timestamp.
func New(name, callID string, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		Event:     name,
		Data:      data,
		EventID:   uuid.New().String(),
		CallID:    callID,
		Timestamp: time.Now().UTC(),
	}
}

// Subject maps an event to its NATS subject, e.g. vani.events.new_grievance.
func (e Event) Subject() string {
	name := strings.ToLower(strings.TrimSpace(e.Event))
	if name == "" {
		name = "unknown"
	}
	return "vani.events." + name
}

// DataField extracts a string field from the event data.
func (e Event) DataField(key string) string {
	if v, ok := e.Data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Marshal encodes the event as JSON.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
