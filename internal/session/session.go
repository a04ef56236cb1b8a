package session

import (
	"time"

	"github.com/MikeSquared-Agency/vani/internal/utterance"
)

// State is the confirmation state of the intent currently being collected.
type State string

const (
	StateCollecting           State = "COLLECTING"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateConfirmed            State = "CONFIRMED"
)

// Roles used in history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Intent is the recorded outcome of a completed tool execution, replayed
// when the same intent is requested again.
type Intent struct {
	Tool     string
	TicketID string
	Reply    string
}

// Session is the in-memory state of one live call. It is owned by the
// connection's turn path and is not safe for concurrent mutation.
type Session struct {
	CallID         string
	History        []Message
	State          State
	Language       string
	LastTranscript []utterance.Line
	TicketIDs      []string
	StartedAt      time.Time

	completed   map[string]Intent
	historyMax  int
	historyKeep int
}

func newSession(callID string, opts Options) *Session {
	return &Session{
		CallID:      callID,
		State:       StateCollecting,
		Language:    opts.DefaultLanguage,
		StartedAt:   time.Now().UTC(),
		completed:   make(map[string]Intent),
		historyMax:  opts.HistoryMax,
		historyKeep: opts.HistoryKeep,
	}
}

// AppendUser records a caller utterance.
func (s *Session) AppendUser(text string) {
	s.append(Message{Role: RoleUser, Content: text})
}

// AppendAssistant records what the assistant said.
func (s *Session) AppendAssistant(text string) {
	s.append(Message{Role: RoleAssistant, Content: text})
}

// append adds a message and, once the cap is exceeded, keeps only the most
// recent historyKeep entries in their original order.
func (s *Session) append(m Message) {
	s.History = append(s.History, m)
	if s.historyMax > 0 && len(s.History) > s.historyMax {
		keep := s.historyKeep
		if keep <= 0 || keep > s.historyMax {
			keep = s.historyMax
		}
		trimmed := make([]Message, keep)
		copy(trimmed, s.History[len(s.History)-keep:])
		s.History = trimmed
	}
}

// Snapshot returns a copy of the history safe to hand to other goroutines.
func (s *Session) Snapshot() []Message {
	out := make([]Message, len(s.History))
	copy(out, s.History)
	return out
}

// Completed returns the stored outcome for an intent key.
func (s *Session) Completed(key string) (Intent, bool) {
	in, ok := s.completed[key]
	return in, ok
}

// MarkCompleted records a successful execution and remembers its ticket.
func (s *Session) MarkCompleted(key string, in Intent) {
	s.completed[key] = in
	if in.TicketID != "" {
		s.TicketIDs = append(s.TicketIDs, in.TicketID)
	}
}

// CompletedCount is the number of intents executed on this call.
func (s *Session) CompletedCount() int {
	return len(s.completed)
}
