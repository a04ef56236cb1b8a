package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/MikeSquared-Agency/vani/internal/store"
	"github.com/MikeSquared-Agency/vani/internal/testutil"
)

func decodeBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body
}

func TestWebhook_CallEndedWithDuration(t *testing.T) {
	ms := testutil.NewMockStore()
	ms.PutGrievance(store.Grievance{TicketID: "DEL-AAA111", CallID: "abc"})
	ms.PutGrievance(store.Grievance{TicketID: "DEL-BBB222", CallID: "other"})
	srv, _ := setupServer(ms)

	w := serve(srv, "POST", "/api/retell/webhook",
		`{"event":"call_ended","call":{"call_id":"call_abc","duration_ms":125400}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w.Body.Bytes())
	if body["duration_seconds"] != float64(125) {
		t.Errorf("expected 125 seconds, got %v", body["duration_seconds"])
	}
	if body["call_id"] != "abc" {
		t.Errorf("expected stripped call id abc, got %v", body["call_id"])
	}

	g, _ := ms.GetGrievance(t.Context(), "DEL-AAA111")
	if g.CallDuration == nil || *g.CallDuration != 125 {
		t.Errorf("expected call duration 125 on DEL-AAA111, got %v", g.CallDuration)
	}
	other, _ := ms.GetGrievance(t.Context(), "DEL-BBB222")
	if other.CallDuration != nil {
		t.Errorf("expected other call untouched, got %v", *other.CallDuration)
	}
}

func TestWebhook_CallEndedFromTimestamps(t *testing.T) {
	ms := testutil.NewMockStore()
	ms.PutGrievance(store.Grievance{TicketID: "DEL-AAA111", CallID: "xyz"})
	srv, _ := setupServer(ms)

	w := serve(srv, "POST", "/api/retell/webhook",
		`{"event":"call_ended","call":{"call_id":"xyz","start_timestamp":1700000000000,"end_timestamp":1700000061999}}`)

	body := decodeBody(t, w.Body.Bytes())
	if body["duration_seconds"] != float64(61) {
		t.Errorf("expected 61 seconds, got %v", body["duration_seconds"])
	}
	tickets, _ := body["tickets"].([]any)
	if len(tickets) != 1 || tickets[0] != "DEL-AAA111" {
		t.Errorf("expected tickets [DEL-AAA111], got %v", body["tickets"])
	}
}

func TestWebhook_CallEndedNoTiming(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())

	w := serve(srv, "POST", "/api/retell/webhook", `{"event":"call_ended","call":{"call_id":"nothing"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w.Body.Bytes())
	if body["duration_seconds"] != float64(0) {
		t.Errorf("expected 0 seconds, got %v", body["duration_seconds"])
	}
}

func TestWebhook_CallEndedMissingCallID(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())

	w := serve(srv, "POST", "/api/retell/webhook", `{"event":"call_ended","call":{}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestWebhook_AcknowledgedEvents(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())

	for _, event := range []string{"call_started", "call_analyzed", "something_else"} {
		w := serve(srv, "POST", "/api/retell/webhook", `{"event":"`+event+`","call":{"call_id":"call_q"}}`)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", event, w.Code)
		}
		body := decodeBody(t, w.Body.Bytes())
		if body["success"] != true {
			t.Errorf("%s: expected success, got %v", event, body)
		}
	}
}

func TestWebhook_InvalidJSON(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())

	w := serve(srv, "POST", "/api/retell/webhook", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
