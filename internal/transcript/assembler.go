package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/vani/internal/events"
	"github.com/MikeSquared-Agency/vani/internal/session"
	"github.com/MikeSquared-Agency/vani/internal/utterance"
)

// TranscriptStore is the write the assembler needs from the repository.
type TranscriptStore interface {
	AttachTranscript(ctx context.Context, callID, transcript string) (int64, error)
}

// Notifier receives the CALL_TRANSCRIPT_STORED event.
type Notifier interface {
	Notify(ctx context.Context, e events.Event) error
}

// Assembler builds the call record when a call ends: the final transcript
// is attached to every grievance raised during the call.
type Assembler struct {
	store    TranscriptStore
	notifier Notifier
}

func NewAssembler(store TranscriptStore, notifier Notifier) *Assembler {
	return &Assembler{store: store, notifier: notifier}
}

// Finalize assembles and stores the transcript for a finished session.
// Calls that raised no grievance are skipped.
func (a *Assembler) Finalize(ctx context.Context, sess *session.Session) {
	if a == nil || sess == nil {
		return
	}
	if len(sess.TicketIDs) == 0 {
		slog.Debug("transcript: no grievances raised, skipping", "call_id", sess.CallID)
		return
	}

	text := Format(sess.LastTranscript)
	if text == "" {
		text = formatHistory(sess.Snapshot())
	}
	if text == "" {
		slog.Warn("transcript: nothing to store", "call_id", sess.CallID)
		return
	}

	n, err := a.store.AttachTranscript(ctx, sess.CallID, text)
	if err != nil {
		slog.Error("transcript: failed to attach transcript", "call_id", sess.CallID, "error", err)
		return
	}
	if n == 0 {
		slog.Warn("transcript: no grievance rows matched", "call_id", sess.CallID)
		return
	}

	duration := time.Since(sess.StartedAt).Round(time.Second)
	slog.Info("transcript: stored",
		"call_id", sess.CallID,
		"grievances", n,
		"duration", duration.String(),
	)

	if a.notifier == nil {
		return
	}
	evt := events.New(events.TypeCallTranscriptStored, sess.CallID, map[string]any{
		"call_id":          sess.CallID,
		"ticket_ids":       append([]string(nil), sess.TicketIDs...),
		"grievances":       n,
		"duration_seconds": int64(duration / time.Second),
		"language":         sess.Language,
	})
	if err := a.notifier.Notify(context.WithoutCancel(ctx), evt); err != nil {
		slog.Warn("transcript: failed to notify", "call_id", sess.CallID, "error", err)
	}
}

// Format renders transcript lines as "[role]: content\n".
func Format(lines []utterance.Line) string {
	var sb strings.Builder
	for _, l := range lines {
		content := strings.TrimSpace(l.Content)
		if content == "" {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(l.Role))
		if role == "" {
			role = "unknown"
		}
		fmt.Fprintf(&sb, "[%s]: %s\n", role, content)
	}
	return sb.String()
}

func formatHistory(msgs []session.Message) string {
	lines := make([]utterance.Line, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, utterance.Line{Role: m.Role, Content: m.Content})
	}
	return Format(lines)
}
