package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/vani/internal/notify"
	"github.com/MikeSquared-Agency/vani/internal/store"
)

// SessionCounter reports the number of live calls.
type SessionCounter interface {
	Len() int
}

type Server struct {
	store    store.DataStore
	sessions SessionCounter
	hub      *notify.Hub
	router   chi.Router
	port     int
	httpSrv  *http.Server
}

// NewServer builds the HTTP surface. callRoutes, when non-nil, is mounted at
// /llm-websocket for the speech platform.
func NewServer(s store.DataStore, sessions SessionCounter, hub *notify.Hub, port int, callRoutes chi.Router) *Server {
	srv := &Server{
		store:    s,
		sessions: sessions,
		hub:      hub,
		port:     port,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", srv.handleHealth)
		r.Get("/grievances", srv.handleListGrievances)
		r.Get("/grievances/{ticketID}", srv.handleGetGrievance)
	})
	r.Post("/api/retell/webhook", srv.handleRetellWebhook)
	if hub != nil {
		r.Get("/ws", hub.ServeDashboard)
	}
	if callRoutes != nil {
		r.Mount("/llm-websocket", callRoutes)
	}

	srv.router = r
	return srv
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("starting HTTP API", "addr", addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests. Hijacked websocket connections are not
// tracked by net/http and close when their peers hang up.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"service": "vani",
	}
	if s.sessions != nil {
		body["active_calls"] = s.sessions.Len()
	}
	if s.hub != nil {
		body["observers"] = s.hub.Len()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleListGrievances(w http.ResponseWriter, r *http.Request) {
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, 500)
		}
	}

	gs, err := s.store.ListGrievances(r.Context(), status, limit)
	if err != nil {
		slog.Error("list grievances failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if gs == nil {
		gs = []store.Grievance{}
	}

	writeJSON(w, http.StatusOK, gs)
}

func (s *Server) handleGetGrievance(w http.ResponseWriter, r *http.Request) {
	ticketID := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "ticketID")))

	g, err := s.store.GetGrievance(r.Context(), ticketID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "grievance not found"})
		return
	}
	if err != nil {
		slog.Error("get grievance failed", "ticket_id", ticketID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, g)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
