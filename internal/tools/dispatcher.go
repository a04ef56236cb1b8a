// Package tools validates and executes the side-effecting tool calls a
// reasoner emits: registering, escalating and checking grievances,
// recording feedback and raising emergencies.
package tools

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/MikeSquared-Agency/vani/internal/events"
	"github.com/MikeSquared-Agency/vani/internal/session"
	"github.com/MikeSquared-Agency/vani/internal/store"
	"github.com/MikeSquared-Agency/vani/internal/telemetry"
)

// Status is the dispatcher's verdict on one call.
type Status string

const (
	StatusIgnored   Status = "ignored"
	StatusInvalid   Status = "invalid"
	StatusBlocked   Status = "blocked"
	StatusDuplicate Status = "duplicate"
	StatusExecuted  Status = "executed"
	StatusNotFound  Status = "not_found"
	StatusFailed    Status = "failed"
)

// Outcome of dispatching one tool call. Reply, when set, replaces the
// model's spoken text; Fallback is only used if the model said nothing.
type Outcome struct {
	Tool     string
	Gated    bool
	Status   Status
	Reply    string
	Fallback string
	TicketID string
	Missing  []string
}

// Notifier receives events after a write commits.
type Notifier interface {
	Notify(ctx context.Context, e events.Event) error
}

type Options struct {
	TicketPrefix string
	Metrics      *telemetry.Metrics
}

type Dispatcher struct {
	registry  *Registry
	store     store.DataStore
	notifier  Notifier
	prefix    string
	metrics   *telemetry.Metrics
	newTicket func(prefix string) string
}

func NewDispatcher(ds store.DataStore, notifier Notifier, opts Options) *Dispatcher {
	prefix := strings.ToUpper(strings.TrimSpace(opts.TicketPrefix))
	if prefix == "" {
		prefix = "DEL"
	}
	d := &Dispatcher{
		registry:  NewRegistry(),
		store:     ds,
		notifier:  notifier,
		prefix:    prefix,
		metrics:   opts.Metrics,
		newTicket: NewTicketID,
	}
	for _, t := range d.builtinTools() {
		if err := d.registry.Register(t); err != nil {
			panic(err)
		}
	}
	return d
}

// Specs lists the tool declarations for the reasoner.
func (d *Dispatcher) Specs() []Spec {
	return d.registry.Specs()
}

// Dispatch runs one tool call for the session. It never returns an error:
// every failure is folded into an Outcome with a speakable reply.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, call Call, confirmed bool) (out Outcome) {
	log := slog.With("call_id", sess.CallID, "tool", call.Name)
	defer func() {
		d.metrics.RecordTool(ctx, out.Tool, string(out.Status))
	}()

	tool, ok := d.registry.Lookup(call.Name)
	if !ok {
		log.Warn("ignoring unknown tool call")
		return Outcome{Tool: call.Name, Status: StatusIgnored}
	}
	out = Outcome{Tool: tool.Name, Gated: tool.Gated}

	raw, err := parseArgs(call.Arguments)
	if err != nil {
		log.Warn("malformed tool arguments", "error", err)
		out.Status = StatusInvalid
		out.Reply = say(sess.Language, phraseApology)
		return out
	}

	args, missing := tool.validate(raw)
	if len(missing) > 0 {
		log.Info("tool call missing required fields", "missing", missing)
		out.Status = StatusInvalid
		out.Missing = missing
		out.Reply = say(sess.Language, phraseMissing, joinLabels(missing))
		return out
	}

	// A repeat of a completed intent is answered from the stored outcome.
	// No write happens, so it is not subject to the confirmation gate.
	key := identityKey(tool, args)
	if key != "" {
		if prior, ok := sess.Completed(key); ok {
			log.Info("duplicate intent suppressed", "ticket_id", prior.TicketID)
			out.Status = StatusDuplicate
			out.TicketID = prior.TicketID
			if prior.TicketID != "" {
				out.Reply = say(sess.Language, phraseAlreadyDone, prior.TicketID)
			} else {
				out.Reply = prior.Reply
			}
			return out
		}
	}

	if tool.Gated && !confirmed {
		log.Info("gated tool blocked until caller confirms")
		out.Status = StatusBlocked
		out.Fallback = say(sess.Language, phraseConfirm)
		return out
	}

	res, err := tool.Handler(ctx, Invocation{CallID: sess.CallID, Language: sess.Language, Args: args})
	if err != nil {
		log.Error("tool execution failed", "error", err)
		out.Status = StatusFailed
		out.Reply = say(sess.Language, phraseTrouble)
		return out
	}

	out.Reply = res.Reply
	out.Fallback = res.Fallback
	out.TicketID = res.TicketID
	if res.NotFound {
		out.Status = StatusNotFound
		return out
	}

	out.Status = StatusExecuted
	if key == "" {
		key = tool.Name + ":" + fingerprint(args, paramNames(tool.Params))
	}
	sess.MarkCompleted(key, session.Intent{Tool: tool.Name, TicketID: res.TicketID, Reply: res.Reply})
	log.Info("tool executed", "ticket_id", res.TicketID)
	return out
}

func (d *Dispatcher) notify(ctx context.Context, e events.Event) {
	if d.notifier == nil {
		return
	}
	// The write has committed; a caller hangup must not drop the event.
	if err := d.notifier.Notify(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("event notification failed", "event", e.Event, "call_id", e.CallID, "error", err)
	}
}

// identityKey is the idempotency key of a call: the tool name plus a hash
// of its normalized identity fields. Empty for tools that are never
// deduplicated.
func identityKey(t *Tool, args Args) string {
	if len(t.IdentityFields) == 0 {
		return ""
	}
	return t.Name + ":" + fingerprint(args, t.IdentityFields)
}

func fingerprint(args Args, fields []string) string {
	h := xxhash.New()
	for _, f := range fields {
		_, _ = h.WriteString(normalizeValue(args[f]))
		_, _ = h.Write([]byte{0x1f})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// normalizeValue lower-cases a value and reduces it to its letters and
// digits separated by single spaces.
func normalizeValue(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " ")
}

func paramNames(params []Param) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}
