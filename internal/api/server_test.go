package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/vani/internal/notify"
	"github.com/MikeSquared-Agency/vani/internal/session"
	"github.com/MikeSquared-Agency/vani/internal/store"
	"github.com/MikeSquared-Agency/vani/internal/testutil"
)

func setupServer(ms store.DataStore) (*Server, *session.Store) {
	sessions := session.NewStore(session.Options{})
	return NewServer(ms, sessions, notify.NewHub(), 8080, nil), sessions
}

func serve(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, sessions := setupServer(testutil.NewMockStore())
	sessions.GetOrCreate("c1")
	sessions.GetOrCreate("c2")

	w := serve(srv, "GET", "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["service"] != "vani" {
		t.Errorf("expected service vani, got %v", body["service"])
	}
	if body["active_calls"] != float64(2) {
		t.Errorf("expected 2 active calls, got %v", body["active_calls"])
	}
	if body["observers"] != float64(0) {
		t.Errorf("expected 0 observers, got %v", body["observers"])
	}
}

func TestGrievancesEndpoint_ListAll(t *testing.T) {
	ms := testutil.NewMockStore()
	ms.PutGrievance(store.Grievance{TicketID: "DEL-AAA111", Status: store.StatusOpen})
	ms.PutGrievance(store.Grievance{TicketID: "DEL-BBB222", Status: store.StatusResolved})
	srv, _ := setupServer(ms)

	w := serve(srv, "GET", "/api/v1/grievances", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body []map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if len(body) != 2 {
		t.Errorf("expected 2 grievances, got %d", len(body))
	}
}

func TestGrievancesEndpoint_FilterByStatus(t *testing.T) {
	ms := testutil.NewMockStore()
	ms.PutGrievance(store.Grievance{TicketID: "DEL-AAA111", Status: store.StatusOpen})
	ms.PutGrievance(store.Grievance{TicketID: "DEL-BBB222", Status: store.StatusEscalated})
	srv, _ := setupServer(ms)

	w := serve(srv, "GET", "/api/v1/grievances?status=escalated", "")

	var body []map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if len(body) != 1 || body[0]["ticket_id"] != "DEL-BBB222" {
		t.Errorf("expected only DEL-BBB222, got %v", body)
	}
}

func TestGrievancesEndpoint_CustomLimit(t *testing.T) {
	ms := testutil.NewMockStore()
	for i := 0; i < 10; i++ {
		ms.PutGrievance(store.Grievance{TicketID: fmt.Sprintf("DEL-%06d", i)})
	}
	srv, _ := setupServer(ms)

	w := serve(srv, "GET", "/api/v1/grievances?limit=3", "")

	var body []map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if len(body) != 3 {
		t.Errorf("expected 3 grievances, got %d", len(body))
	}
}

func TestGrievancesEndpoint_EmptyIsArray(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())

	w := serve(srv, "GET", "/api/v1/grievances", "")
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}
}

func TestGrievancesEndpoint_StoreError(t *testing.T) {
	ms := testutil.NewMockStore()
	ms.ListErr = fmt.Errorf("db down")
	srv, _ := setupServer(ms)

	w := serve(srv, "GET", "/api/v1/grievances", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestGetGrievance_Found(t *testing.T) {
	ms := testutil.NewMockStore()
	ms.PutGrievance(store.Grievance{TicketID: "DEL-DBE1A6", CitizenName: "Asha", Location: "Rohini"})
	srv, _ := setupServer(ms)

	w := serve(srv, "GET", "/api/v1/grievances/del-dbe1a6", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if body["ticket_id"] != "DEL-DBE1A6" {
		t.Errorf("expected ticket DEL-DBE1A6, got %v", body["ticket_id"])
	}
	if body["citizen_name"] != "Asha" {
		t.Errorf("expected citizen Asha, got %v", body["citizen_name"])
	}
}

func TestGetGrievance_NotFound(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())

	w := serve(srv, "GET", "/api/v1/grievances/DEL-NOPE00", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDashboardRouteMounted(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())

	// A plain GET is not a websocket handshake; the upgrader rejects it.
	w := serve(srv, "GET", "/ws", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 from the websocket upgrader, got %d", w.Code)
	}
}
