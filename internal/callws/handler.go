// Package callws serves the speech platform's custom-LLM websocket: one
// connection per live call, a reader that answers keepalives at once and a
// worker that runs turns in order.
package callws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/MikeSquared-Agency/vani/internal/orchestrator"
	"github.com/MikeSquared-Agency/vani/internal/protocol"
	"github.com/MikeSquared-Agency/vani/internal/session"
	"github.com/MikeSquared-Agency/vani/internal/telemetry"
	"github.com/MikeSquared-Agency/vani/internal/utterance"
)

// TurnHandler produces the reply for one turn. HandleReminder answers a
// caller who has gone quiet and must not treat the transcript as new speech.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sess *session.Session, transcript []utterance.Line) orchestrator.Reply
	HandleReminder(ctx context.Context, sess *session.Session, transcript []utterance.Line) orchestrator.Reply
}

// Finalizer runs once per call after the last turn has finished.
type Finalizer interface {
	Finalize(ctx context.Context, sess *session.Session)
}

type Options struct {
	TurnTimeout     time.Duration
	MaxMessageBytes int64
	WriteTimeout    time.Duration
	// IdleTimeout closes a connection that sends nothing for this long.
	IdleTimeout time.Duration
	QueueSize   int
	Metrics     *telemetry.Metrics
}

type Handler struct {
	sessions  *session.Store
	turns     TurnHandler
	finalizer Finalizer
	opts      Options
	upgrader  websocket.Upgrader
}

func NewHandler(sessions *session.Store, turns TurnHandler, finalizer Finalizer, opts Options) *Handler {
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = 8 * time.Second
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 1 << 20
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 5 * time.Minute
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	return &Handler{
		sessions:  sessions,
		turns:     turns,
		finalizer: finalizer,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes returns the router to mount at /llm-websocket.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{callID}", h.ServeCall)
	return r
}

// ServeCall upgrades the request and runs the call until the platform
// disconnects.
func (h *Handler) ServeCall(w http.ResponseWriter, r *http.Request) {
	callID := protocol.CallID(chi.URLParam(r, "callID"))
	if callID == "" {
		http.Error(w, "missing call id", http.StatusBadRequest)
		return
	}
	log := slog.With("call_id", callID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess, release, err := h.sessions.Acquire(callID)
	if errors.Is(err, session.ErrSessionActive) {
		log.Warn("rejecting duplicate connection for active call")
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "call already connected")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		return
	}
	if err != nil {
		log.Error("failed to claim session", "error", err)
		return
	}

	h.opts.Metrics.CallStarted(r.Context())
	log.Info("call connected")

	defer func() {
		release()
		h.opts.Metrics.CallEnded(context.Background())
		log.Info("call closed", "completed_intents", sess.CompletedCount())
	}()
	defer func() {
		if h.finalizer == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.finalizer.Finalize(ctx, sess)
	}()

	c := newCall(conn, sess, h, log)
	c.run(context.WithoutCancel(r.Context()))
}
