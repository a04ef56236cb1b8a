// Package protocol is the wire codec for the speech platform's custom-LLM
// websocket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/vani/internal/utterance"
)

// Interaction types sent by the platform.
const (
	InteractionPingPong         = "ping_pong"
	InteractionResponseRequired = "response_required"
	InteractionReminderRequired = "reminder_required"
	InteractionUpdateOnly       = "update_only"
	InteractionCallDetails      = "call_details"
)

var ErrMissingInteractionType = errors.New("frame has no interaction_type")

// Inbound is a frame received from the platform.
type Inbound struct {
	InteractionType string           `json:"interaction_type"`
	Timestamp       json.RawMessage  `json:"timestamp,omitempty"`
	ResponseID      int              `json:"response_id"`
	Transcript      []utterance.Line `json:"transcript,omitempty"`
}

// IsTurn reports whether the frame asks for a spoken reply.
func (in Inbound) IsTurn() bool {
	return in.InteractionType == InteractionResponseRequired ||
		in.InteractionType == InteractionReminderRequired
}

// Decode parses one inbound text frame.
func Decode(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("decode frame: %w", err)
	}
	if in.InteractionType == "" {
		return Inbound{}, ErrMissingInteractionType
	}
	return in, nil
}

// Response is the spoken reply for one turn.
type Response struct {
	ResponseID      int    `json:"response_id"`
	Content         string `json:"content"`
	ContentComplete bool   `json:"content_complete"`
	EndCall         bool   `json:"end_call"`
}

// NewResponse builds a complete reply frame.
func NewResponse(responseID int, content string, endCall bool) Response {
	return Response{
		ResponseID:      responseID,
		Content:         content,
		ContentComplete: true,
		EndCall:         endCall,
	}
}

// PingPong is the keepalive echo.
type PingPong struct {
	InteractionType string          `json:"interaction_type"`
	Timestamp       json.RawMessage `json:"timestamp"`
}

// Echo returns the keepalive reply carrying the inbound timestamp unchanged.
func Echo(in Inbound) PingPong {
	ts := in.Timestamp
	if len(ts) == 0 {
		ts = json.RawMessage("null")
	}
	return PingPong{InteractionType: InteractionPingPong, Timestamp: ts}
}

// CallID strips the platform's "call_" prefix from a path or webhook id.
func CallID(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "call_")
}
