package callws

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MikeSquared-Agency/vani/internal/orchestrator"
	"github.com/MikeSquared-Agency/vani/internal/protocol"
	"github.com/MikeSquared-Agency/vani/internal/session"
)

// call owns one connection. The session is touched only by the goroutine
// running run before the worker starts, and by the worker afterwards.
type call struct {
	conn *websocket.Conn
	sess *session.Session
	h    *Handler
	log  *slog.Logger

	writeMu sync.Mutex
	// lang mirrors sess.Language for the reader, which must not touch sess.
	lang atomic.Value
}

type turnResult struct {
	reply    orchestrator.Reply
	panicked bool
}

func newCall(conn *websocket.Conn, sess *session.Session, h *Handler, log *slog.Logger) *call {
	c := &call{conn: conn, sess: sess, h: h, log: log}
	c.lang.Store(sess.Language)
	return c
}

func (c *call) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	greeting := orchestrator.Greeting(c.sess.Language)
	c.sess.AppendAssistant(greeting)
	if err := c.writeJSON(protocol.NewResponse(0, greeting, false)); err != nil {
		c.log.Warn("failed to send greeting", "error", err)
		return
	}

	turns := make(chan protocol.Inbound, c.h.opts.QueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for in := range turns {
			if ctx.Err() != nil {
				continue
			}
			c.turn(ctx, in)
		}
	}()

	c.read(turns)

	// Hang up: abandon the in-flight turn and drop anything still queued.
	cancel()
	close(turns)
	<-done
}

func (c *call) read(turns chan<- protocol.Inbound) {
	c.conn.SetReadLimit(c.h.opts.MaxMessageBytes)
	c.extendReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("call connection lost", "error", err)
			} else {
				c.log.Debug("call connection closed", "error", err)
			}
			return
		}
		c.extendReadDeadline()

		in, err := protocol.Decode(data)
		if err != nil {
			c.log.Warn("dropping malformed frame", "error", err, "size", len(data))
			continue
		}

		switch {
		case in.InteractionType == protocol.InteractionPingPong:
			if err := c.writeJSON(protocol.Echo(in)); err != nil {
				c.log.Warn("failed to echo keepalive", "error", err)
				return
			}
		case in.IsTurn():
			select {
			case turns <- in:
			default:
				// The worker is hopelessly behind; answer now rather than never.
				// This reply overtakes the queued ones. The platform only speaks
				// the reply for its latest response_id, which is this one.
				c.log.Warn("turn queue full, answering with timeout reply", "response_id", in.ResponseID)
				lang, _ := c.lang.Load().(string)
				if err := c.writeJSON(protocol.NewResponse(in.ResponseID, orchestrator.TimeoutReply(lang), false)); err != nil {
					c.log.Warn("failed to send overflow reply", "response_id", in.ResponseID, "error", err)
					return
				}
			}
		case in.InteractionType == protocol.InteractionUpdateOnly,
			in.InteractionType == protocol.InteractionCallDetails:
			c.log.Debug("frame needs no reply", "interaction_type", in.InteractionType)
		default:
			c.log.Debug("ignoring unknown interaction", "interaction_type", in.InteractionType)
		}
	}
}

// turn runs one turn under the turn deadline and sends exactly one reply.
// When the deadline fires first the timeout reply goes out immediately and
// the abandoned turn is waited for before the next one may start.
func (c *call) turn(parent context.Context, in protocol.Inbound) {
	start := time.Now()
	lang := c.sess.Language
	log := c.log.With("response_id", in.ResponseID)

	ctx, cancel := context.WithTimeout(parent, c.h.opts.TurnTimeout)
	defer cancel()

	result := make(chan turnResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("turn panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
				result <- turnResult{reply: orchestrator.Reply{Content: orchestrator.Apology(lang)}, panicked: true}
			}
		}()
		if in.InteractionType == protocol.InteractionReminderRequired {
			result <- turnResult{reply: c.h.turns.HandleReminder(ctx, c.sess, in.Transcript)}
			return
		}
		result <- turnResult{reply: c.h.turns.HandleTurn(ctx, c.sess, in.Transcript)}
	}()

	var (
		res     turnResult
		outcome string
	)
	select {
	case res = <-result:
		outcome = outcomeOf(res)
	case <-ctx.Done():
		select {
		case res = <-result:
			outcome = outcomeOf(res)
		default:
			if parent.Err() != nil {
				<-result
				c.h.opts.Metrics.RecordTurn(parent, "cancelled", time.Since(start))
				return
			}
			log.Warn("turn deadline exceeded", "timeout", c.h.opts.TurnTimeout)
			c.send(log, in.ResponseID, orchestrator.Reply{Content: orchestrator.TimeoutReply(lang)})
			<-result
			c.lang.Store(c.sess.Language)
			c.h.opts.Metrics.RecordTurn(parent, "timeout", time.Since(start))
			return
		}
	}

	c.send(log, in.ResponseID, res.reply)
	c.lang.Store(c.sess.Language)
	c.h.opts.Metrics.RecordTurn(parent, outcome, time.Since(start))
}

func outcomeOf(res turnResult) string {
	if res.panicked {
		return "panic"
	}
	return "ok"
}

func (c *call) send(log *slog.Logger, responseID int, reply orchestrator.Reply) {
	if err := c.writeJSON(protocol.NewResponse(responseID, reply.Content, reply.EndCall)); err != nil {
		log.Warn("failed to send reply", "error", err)
		return
	}
	log.Debug("reply sent", "end_call", reply.EndCall)
}

func (c *call) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.h.opts.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *call) extendReadDeadline() {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.h.opts.IdleTimeout))
}
