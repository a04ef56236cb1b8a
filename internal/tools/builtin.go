package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/vani/internal/events"
	"github.com/MikeSquared-Agency/vani/internal/store"
)

// Canonical tool names.
const (
	ToolRegisterGrievance  = "register_grievance"
	ToolCheckStatus        = "check_status"
	ToolEscalate           = "escalate"
	ToolRecordFeedback     = "record_feedback"
	ToolEmergency          = "emergency"
	ToolProvideGeneralInfo = "provide_general_info"
)

const maxTicketAttempts = 3

var (
	departments = []string{
		"Water (DJB)", "Police", "Pollution (DPCC)", "Roads (PWD)",
		"Electricity", "Health", "Education", "Transport", "General/PGC",
	}
	categories = []string{
		"Water Supply", "Sewage/Drainage", "Road Maintenance", "Street Lights",
		"Garbage Collection", "Traffic", "Law & Order", "Pollution", "Power Cut",
		"Health Services", "Education", "Corruption/Harassment", "Billing Issues",
		"Illegal Construction", "Encroachment", "Public Transport", "Other",
	}
	priorities     = []string{"Low", "Medium", "High", "Critical"}
	emergencyTypes = []string{"medical", "fire", "crime", "disaster", "accident", "other"}
	queryTypes     = []string{
		"office_hours", "helpline_numbers", "procedures", "eligibility",
		"documents_required", "online_services", "other",
	}
)

func (d *Dispatcher) builtinTools() []Tool {
	ticket := func(s string) string { return NormalizeTicketID(s, d.prefix) }
	phone := Param{Name: "phone_number", Type: TypeString, Description: "Caller's mobile number"}

	return []Tool{
		{
			Name:        ToolRegisterGrievance,
			Description: "Register a new citizen grievance after explicit confirmation.",
			Gated:       true,
			Params: []Param{
				{Name: "name", Type: TypeString, Description: "Citizen's full name", Required: true, Label: "your name"},
				{Name: "contact", Type: TypeString, Description: "10-digit mobile number", Required: true, Aliases: []string{"phone_number", "mobile"}, Label: "your mobile number"},
				{Name: "issue", Type: TypeString, Description: "Detailed grievance description", Required: true, Aliases: []string{"description"}, Label: "a description of the problem"},
				{Name: "location", Type: TypeString, Description: "Specific area, colony or sector", Required: true, Label: "the location"},
				{Name: "department", Type: TypeString, Description: "Responsible department", Enum: departments, Required: true, Label: "the department"},
				{Name: "category", Type: TypeString, Description: "Grievance category", Enum: categories},
				{Name: "priority", Type: TypeString, Description: "Urgency", Enum: priorities},
			},
			IdentityFields: []string{"name", "issue", "location"},
			Handler:        d.registerGrievance,
		},
		{
			Name:        ToolCheckStatus,
			Aliases:     []string{"check_complaint_status"},
			Description: "Check the status of an existing complaint.",
			Params: []Param{
				{Name: "ticket_id", Type: TypeString, Description: "Ticket number, e.g. DEL-ABC123", Required: true, Label: "your ticket number", Normalize: ticket},
				phone,
			},
			Handler: d.checkStatus,
		},
		{
			Name:        ToolEscalate,
			Aliases:     []string{"escalate_complaint"},
			Description: "Escalate a complaint to higher authorities after explicit confirmation.",
			Gated:       true,
			Params: []Param{
				{Name: "ticket_id", Type: TypeString, Description: "Ticket number, e.g. DEL-ABC123", Required: true, Label: "your ticket number", Normalize: ticket},
				{Name: "reason", Type: TypeString, Description: "Why the complaint needs escalation", Required: true, Label: "the reason for escalation"},
				phone,
			},
			IdentityFields: []string{"ticket_id"},
			Handler:        d.escalate,
		},
		{
			Name:        ToolRecordFeedback,
			Description: "Record citizen feedback.",
			Params: []Param{
				{Name: "rating", Type: TypeInteger, Description: "Rating from 1 to 5", Required: true, Min: 1, Max: 5, Label: "a rating from one to five"},
				{Name: "feedback_text", Type: TypeString, Description: "Feedback in the citizen's words", Required: true, Aliases: []string{"feedback"}, Label: "your feedback"},
				{Name: "ticket_id", Type: TypeString, Description: "Related ticket number, if any", Normalize: ticket},
				phone,
			},
			IdentityFields: []string{"rating", "feedback_text", "ticket_id"},
			Handler:        d.recordFeedback,
		},
		{
			Name:        ToolEmergency,
			Aliases:     []string{"emergency_assistance"},
			Description: "Immediate emergency escalation.",
			Params: []Param{
				{Name: "emergency_type", Type: TypeString, Description: "Kind of emergency", Enum: emergencyTypes, Required: true, Label: "the type of emergency"},
				{Name: "location", Type: TypeString, Description: "Where help is needed", Required: true, Label: "the exact location"},
				{Name: "contact", Type: TypeString, Description: "Caller's mobile number", Required: true, Aliases: []string{"phone_number"}, Label: "your mobile number"},
				{Name: "description", Type: TypeString, Description: "What is happening", Required: true, Label: "what is happening"},
			},
			IdentityFields: []string{"emergency_type", "location"},
			Handler:        d.emergency,
		},
		{
			Name:        ToolProvideGeneralInfo,
			Description: "Provide general information about government services.",
			Params: []Param{
				{Name: "query_type", Type: TypeString, Description: "Kind of information requested", Enum: queryTypes, Required: true, Label: "what you would like to know"},
				{Name: "department", Type: TypeString, Description: "Department the question is about"},
			},
			Handler: d.provideGeneralInfo,
		},
	}
}

func (d *Dispatcher) registerGrievance(ctx context.Context, inv Invocation) (Result, error) {
	a := inv.Args
	g := store.Grievance{
		CitizenName: a.String("name"),
		Contact:     a.String("contact"),
		Description: a.String("issue"),
		Location:    a.String("location"),
		Department:  a.String("department"),
		Category:    orDefault(a.String("category"), "Other"),
		Priority:    orDefault(a.String("priority"), "Medium"),
		Status:      store.StatusOpen,
		CallID:      inv.CallID,
		Language:    inv.Language,
	}

	var err error
	for attempt := 0; attempt < maxTicketAttempts; attempt++ {
		g.TicketID = d.newTicket(d.prefix)
		err = d.store.InsertGrievance(ctx, g)
		if !errors.Is(err, store.ErrDuplicateTicket) {
			break
		}
		slog.Warn("ticket id collision, regenerating", "ticket_id", g.TicketID)
	}
	if err != nil {
		return Result{}, fmt.Errorf("register grievance: %w", err)
	}

	d.notify(ctx, events.New(events.TypeNewGrievance, inv.CallID, map[string]any{
		"ticket_id":  g.TicketID,
		"name":       g.CitizenName,
		"contact":    g.Contact,
		"issue":      g.Description,
		"location":   g.Location,
		"department": g.Department,
		"category":   g.Category,
		"priority":   g.Priority,
		"status":     g.Status,
		"language":   g.Language,
	}))

	return Result{
		TicketID: g.TicketID,
		Reply:    say(inv.Language, phraseRegistered, g.TicketID, g.Priority, g.Contact),
	}, nil
}

func (d *Dispatcher) checkStatus(ctx context.Context, inv Invocation) (Result, error) {
	ticketID := inv.Args.String("ticket_id")

	if err := d.store.LogStatusCheck(ctx, store.StatusCheck{
		TicketID:    ticketID,
		PhoneNumber: inv.Args.String("phone_number"),
		CallID:      inv.CallID,
	}); err != nil {
		slog.Warn("failed to log status check", "ticket_id", ticketID, "error", err)
	}

	g, err := d.store.GetGrievance(ctx, ticketID)
	if errors.Is(err, store.ErrNotFound) {
		return Result{NotFound: true, Reply: say(inv.Language, phraseNotFound, ticketID)}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("check status: %w", err)
	}

	state, ok := statusPhrases[g.Status]
	if !ok {
		state = "is being processed by"
	}
	return Result{
		Reply: say(inv.Language, phraseStatus, g.TicketID, state,
			orDefault(g.Department, "the concerned department"), orDefault(g.Priority, "Medium")),
	}, nil
}

func (d *Dispatcher) escalate(ctx context.Context, inv Invocation) (Result, error) {
	ticketID := inv.Args.String("ticket_id")
	reason := inv.Args.String("reason")

	g, err := d.store.EscalateGrievance(ctx, store.Escalation{
		TicketID:    ticketID,
		Reason:      reason,
		EscalatedBy: "citizen",
		CallID:      inv.CallID,
	})
	if errors.Is(err, store.ErrNotFound) {
		return Result{NotFound: true, Reply: say(inv.Language, phraseNotFound, ticketID)}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("escalate: %w", err)
	}

	d.notify(ctx, events.New(events.TypeGrievanceEscalated, inv.CallID, map[string]any{
		"ticket_id":  g.TicketID,
		"reason":     reason,
		"escalated":  g.Escalated,
		"department": g.Department,
		"status":     g.Status,
	}))

	return Result{
		TicketID: g.TicketID,
		Reply:    say(inv.Language, phraseEscalated, g.TicketID),
	}, nil
}

func (d *Dispatcher) recordFeedback(ctx context.Context, inv Invocation) (Result, error) {
	f := store.Feedback{
		TicketID:     inv.Args.String("ticket_id"),
		Rating:       inv.Args.Int("rating"),
		FeedbackText: inv.Args.String("feedback_text"),
		PhoneNumber:  inv.Args.String("phone_number"),
		CallID:       inv.CallID,
	}
	if err := d.store.InsertFeedback(ctx, f); err != nil {
		return Result{}, fmt.Errorf("record feedback: %w", err)
	}

	d.notify(ctx, events.New(events.TypeFeedbackRecorded, inv.CallID, map[string]any{
		"ticket_id":     f.TicketID,
		"rating":        f.Rating,
		"feedback_text": f.FeedbackText,
	}))

	return Result{Reply: say(inv.Language, phraseFeedback, f.Rating)}, nil
}

func (d *Dispatcher) emergency(ctx context.Context, inv Invocation) (Result, error) {
	e := store.Emergency{
		EmergencyType: inv.Args.String("emergency_type"),
		Location:      inv.Args.String("location"),
		PhoneNumber:   inv.Args.String("contact"),
		Description:   inv.Args.String("description"),
		CallID:        inv.CallID,
	}
	if err := d.store.InsertEmergency(ctx, e); err != nil {
		return Result{}, fmt.Errorf("emergency: %w", err)
	}

	d.notify(ctx, events.New(events.TypeEmergencyAlert, inv.CallID, map[string]any{
		"emergency_type": e.EmergencyType,
		"location":       e.Location,
		"phone_number":   e.PhoneNumber,
		"description":    e.Description,
	}))

	return Result{Reply: say(inv.Language, phraseEmergency, e.EmergencyType, e.Location)}, nil
}

// provideGeneralInfo writes nothing; the model answers from retrieved context.
func (d *Dispatcher) provideGeneralInfo(_ context.Context, inv Invocation) (Result, error) {
	return Result{Fallback: say(inv.Language, phraseGeneralInfo)}, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
