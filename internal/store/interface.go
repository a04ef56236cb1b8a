package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a ticket lookup or update matches no row.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateTicket is returned when a ticket id collides with an existing row.
	ErrDuplicateTicket = errors.New("store: duplicate ticket id")
)

// Grievance status values.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusClosed     = "CLOSED"
	StatusEscalated  = "ESCALATED"
)

type Grievance struct {
	TicketID         string     `json:"ticket_id"`
	CitizenName      string     `json:"citizen_name"`
	Contact          string     `json:"contact"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	Department       string     `json:"department"`
	Category         string     `json:"category"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	CallID           string     `json:"call_id"`
	Language         string     `json:"language"`
	Escalated        int        `json:"escalated"`
	EscalationReason string     `json:"escalation_reason,omitempty"`
	CallDuration     *int64     `json:"call_duration,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}

type Escalation struct {
	TicketID    string
	Reason      string
	EscalatedBy string
	CallID      string
}

type StatusCheck struct {
	TicketID    string
	PhoneNumber string
	CallID      string
}

type Feedback struct {
	TicketID     string
	Rating       int
	FeedbackText string
	PhoneNumber  string
	CallID       string
}

type Emergency struct {
	EmergencyType string
	Location      string
	PhoneNumber   string
	Description   string
	CallID        string
}

// DataStore is the interface consumed by the tool dispatcher, the context
// provider, the call record assembler and the API.
// The concrete implementation is *Store (pgx-backed).
type DataStore interface {
	InsertGrievance(ctx context.Context, g Grievance) error
	GetGrievance(ctx context.Context, ticketID string) (Grievance, error)
	ListGrievances(ctx context.Context, status string, limit int) ([]Grievance, error)
	EscalateGrievance(ctx context.Context, e Escalation) (Grievance, error)
	LogStatusCheck(ctx context.Context, c StatusCheck) error
	InsertFeedback(ctx context.Context, f Feedback) error
	InsertEmergency(ctx context.Context, e Emergency) error
	SetCallDuration(ctx context.Context, callID string, seconds int64) ([]string, error)
	AttachTranscript(ctx context.Context, callID, transcript string) (int64, error)
	SearchDocuments(ctx context.Context, query string, limit int) ([]string, error)
	Close()
}
