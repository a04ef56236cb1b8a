// Package orchestrator runs one conversation turn: it records the caller's
// utterance, drives the confirmation state machine, consults retrieval and
// the reasoner, and dispatches any tool calls.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/vani/internal/reasoning"
	"github.com/MikeSquared-Agency/vani/internal/session"
	"github.com/MikeSquared-Agency/vani/internal/tools"
	"github.com/MikeSquared-Agency/vani/internal/utterance"
)

// ContextProvider returns reference text for a query, "" on any failure.
type ContextProvider interface {
	Context(ctx context.Context, query string) string
}

type Dispatcher interface {
	Dispatch(ctx context.Context, sess *session.Session, call tools.Call, confirmed bool) tools.Outcome
}

// Reply is what the caller hears for one turn.
type Reply struct {
	Content string
	EndCall bool
}

type Orchestrator struct {
	reasoner   reasoning.Reasoner
	retriever  ContextProvider
	dispatcher Dispatcher
}

func New(r reasoning.Reasoner, c ContextProvider, d Dispatcher) *Orchestrator {
	return &Orchestrator{reasoner: r, retriever: c, dispatcher: d}
}

// HandleTurn processes one response_required event for sess. It always
// returns a non-empty reply and records it in history.
func (o *Orchestrator) HandleTurn(ctx context.Context, sess *session.Session, transcript []utterance.Line) Reply {
	log := slog.With("call_id", sess.CallID)
	startLang := sess.Language

	sess.LastTranscript = append([]utterance.Line(nil), transcript...)

	text := utterance.LatestUser(transcript)
	if text == "" {
		reply := Clarification(sess.Language)
		sess.AppendAssistant(reply)
		return Reply{Content: reply}
	}

	updateLanguage(sess, text)
	sess.AppendUser(text)

	confirmed := utterance.IsConfirmation(text)
	switch {
	case confirmed:
		sess.State = session.StateConfirmed
	case sess.State == session.StateConfirmed:
		sess.State = session.StateCollecting
	}

	var docs string
	if o.retriever != nil {
		docs = o.retriever.Context(ctx, text)
	}

	resp, err := o.reasoner.Respond(ctx, reasoning.Request{
		History:       sess.Snapshot(),
		Context:       docs,
		UserConfirmed: confirmed,
		Language:      sess.Language,
	})
	if err != nil {
		log.Error("reasoner failed", "error", err)
		resp = reasoning.Response{Content: Apology(sess.Language)}
	}

	content := strings.TrimSpace(resp.Content)
	var (
		overrides []string
		fallback  string
	)
	for _, call := range resp.ToolCalls {
		out := o.dispatcher.Dispatch(ctx, sess, call, confirmed)
		switch out.Status {
		case tools.StatusBlocked:
			sess.State = session.StateAwaitingConfirmation
		case tools.StatusExecuted, tools.StatusNotFound:
			if out.Gated {
				sess.State = session.StateCollecting
			}
		}
		if out.Reply != "" {
			overrides = append(overrides, out.Reply)
		}
		if fallback == "" {
			fallback = out.Fallback
		}
	}

	switch {
	case len(overrides) > 0:
		content = strings.Join(overrides, " ")
	case content == "" && fallback != "":
		content = fallback
	case content == "":
		content = Clarification(sess.Language)
	}

	endCall := sess.CompletedCount() > 0 && len(resp.ToolCalls) == 0 && utterance.IsClosing(text)

	// Past the deadline the caller already heard the timeout reply, spoken
	// in the language the turn started with.
	if ctx.Err() != nil {
		log.Warn("turn finished after deadline", "error", ctx.Err())
		content = TimeoutReply(startLang)
		endCall = false
	}

	sess.AppendAssistant(content)
	return Reply{Content: content, EndCall: endCall}
}

// HandleReminder answers a reminder_required event, sent when the caller
// has gone quiet. The transcript carries no new caller speech, so nothing
// is appended for the user, the confirmation state is left alone and tool
// calls are not dispatched.
func (o *Orchestrator) HandleReminder(ctx context.Context, sess *session.Session, transcript []utterance.Line) Reply {
	log := slog.With("call_id", sess.CallID)
	startLang := sess.Language

	sess.LastTranscript = append([]utterance.Line(nil), transcript...)

	resp, err := o.reasoner.Respond(ctx, reasoning.Request{
		History:  sess.Snapshot(),
		Language: sess.Language,
	})
	if err != nil {
		log.Warn("reasoner failed on reminder", "error", err)
	}
	if n := len(resp.ToolCalls); n > 0 {
		log.Debug("ignoring tool calls on reminder", "count", n)
	}

	content := strings.TrimSpace(resp.Content)
	if err != nil || content == "" {
		content = Reminder(sess.Language)
	}
	if ctx.Err() != nil {
		content = TimeoutReply(startLang)
	}

	sess.AppendAssistant(content)
	return Reply{Content: content}
}

// updateLanguage follows the caller into Hindi or Punjabi at once, but only
// returns to English on a substantial English utterance so a bare "ok"
// does not switch languages.
func updateLanguage(sess *session.Session, text string) {
	lang := utterance.DetectLanguage(text)
	if lang == sess.Language {
		return
	}
	if lang == utterance.English && len(strings.Fields(text)) < 4 {
		return
	}
	sess.Language = lang
}
