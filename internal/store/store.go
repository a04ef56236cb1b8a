package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports whether the database is reachable (for health checks).
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InsertGrievance writes a new grievance in a single statement.
func (s *Store) InsertGrievance(ctx context.Context, g Grievance) error {
	status := g.Status
	if status == "" {
		status = StatusOpen
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO grievances
			(ticket_id, citizen_name, contact, description, location,
			 department, category, priority, status, call_id, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, g.TicketID, g.CitizenName, g.Contact, g.Description, g.Location,
		g.Department, g.Category, g.Priority, status, g.CallID, g.Language)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTicket
		}
		return fmt.Errorf("insert grievance: %w", err)
	}

	slog.Debug("inserted grievance", "ticket_id", g.TicketID, "call_id", g.CallID)
	return nil
}

const grievanceColumns = `ticket_id, citizen_name, contact, description, location, department,
	category, priority, status, call_id, language, escalated, escalation_reason,
	call_duration, created_at, updated_at, resolved_at`

// GetGrievance looks a ticket up, tolerating a missing hyphen.
func (s *Store) GetGrievance(ctx context.Context, ticketID string) (Grievance, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+grievanceColumns+` FROM grievances
		WHERE ticket_id = $1 OR REPLACE(ticket_id, '-', '') = REPLACE($1, '-', '')
		LIMIT 1`, ticketID)

	g, err := scanGrievance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grievance{}, ErrNotFound
	}
	if err != nil {
		return Grievance{}, fmt.Errorf("get grievance: %w", err)
	}
	return g, nil
}

// ListGrievances returns grievances filtered by status with a limit, newest first.
func (s *Store) ListGrievances(ctx context.Context, status string, limit int) ([]Grievance, error) {
	q := `SELECT ` + grievanceColumns + ` FROM grievances`
	args := []any{}
	argN := 1

	if status != "" {
		q += fmt.Sprintf(` WHERE status = $%d`, argN)
		args = append(args, status)
		argN++
	}

	q += ` ORDER BY created_at DESC`

	if limit > 0 {
		q += fmt.Sprintf(` LIMIT $%d`, argN)
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Grievance
	for rows.Next() {
		g, err := scanGrievance(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

// EscalateGrievance flips status, bumps the escalation counter and logs the
// escalation. The update and the log row are one statement so they commit
// together.
func (s *Store) EscalateGrievance(ctx context.Context, e Escalation) (Grievance, error) {
	row := s.pool.QueryRow(ctx, `
		WITH upd AS (
			UPDATE grievances
			SET status = 'ESCALATED',
			    escalated = escalated + 1,
			    escalation_reason = $2,
			    updated_at = now()
			WHERE ticket_id = $1
			RETURNING `+grievanceColumns+`
		), logged AS (
			INSERT INTO escalations (ticket_id, reason, escalated_by, call_id)
			SELECT ticket_id, $2, $3, $4 FROM upd
		)
		SELECT `+grievanceColumns+` FROM upd
	`, e.TicketID, e.Reason, e.EscalatedBy, e.CallID)

	g, err := scanGrievance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grievance{}, ErrNotFound
	}
	if err != nil {
		return Grievance{}, fmt.Errorf("escalate grievance: %w", err)
	}
	return g, nil
}

func (s *Store) LogStatusCheck(ctx context.Context, c StatusCheck) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO status_checks (ticket_id, phone_number, call_id) VALUES ($1, $2, $3)`,
		c.TicketID, c.PhoneNumber, c.CallID,
	)
	if err != nil {
		return fmt.Errorf("log status check: %w", err)
	}
	return nil
}

func (s *Store) InsertFeedback(ctx context.Context, f Feedback) error {
	var ticket *string
	if f.TicketID != "" {
		ticket = &f.TicketID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO feedback (ticket_id, rating, feedback_text, phone_number, call_id) VALUES ($1, $2, $3, $4, $5)`,
		ticket, f.Rating, f.FeedbackText, f.PhoneNumber, f.CallID,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (s *Store) InsertEmergency(ctx context.Context, e Emergency) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO emergencies (emergency_type, location, phone_number, description, call_id) VALUES ($1, $2, $3, $4, $5)`,
		e.EmergencyType, e.Location, e.PhoneNumber, e.Description, e.CallID,
	)
	if err != nil {
		return fmt.Errorf("insert emergency: %w", err)
	}
	return nil
}

// SetCallDuration attaches the post-call duration to every grievance raised
// on the call and returns the affected ticket ids.
func (s *Store) SetCallDuration(ctx context.Context, callID string, seconds int64) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE grievances SET call_duration = $2, updated_at = now() WHERE call_id = $1 RETURNING ticket_id`,
		callID, seconds,
	)
	if err != nil {
		return nil, fmt.Errorf("set call duration: %w", err)
	}
	defer rows.Close()

	var tickets []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		tickets = append(tickets, id)
	}
	return tickets, rows.Err()
}

// AttachTranscript stores the call transcript on every grievance raised on the call.
func (s *Store) AttachTranscript(ctx context.Context, callID, transcript string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE grievances SET transcript = $2, updated_at = now() WHERE call_id = $1`,
		callID, transcript,
	)
	if err != nil {
		return 0, fmt.Errorf("attach transcript: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SearchDocuments runs a ranked full-text search over ingested reference
// documents. Any query word may match.
func (s *Store) SearchDocuments(ctx context.Context, query string, limit int) ([]string, error) {
	tsq := orQuery(query)
	if tsq == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.pool.Query(ctx, `
		SELECT content FROM documents
		WHERE search @@ to_tsquery('simple', $1)
		ORDER BY ts_rank(search, to_tsquery('simple', $1)) DESC
		LIMIT $2
	`, tsq, limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var docs []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		docs = append(docs, content)
	}
	return docs, rows.Err()
}

// orQuery turns free text into a tsquery of its words joined with OR.
// Short words and punctuation are dropped so the query is always valid.
func orQuery(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(words))
	var terms []string
	for _, w := range words {
		if len([]rune(w)) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return strings.Join(terms, " | ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrievance(row rowScanner) (Grievance, error) {
	var (
		g                                  Grievance
		name, contact, location, dept      *string
		category, priority, callID, lang   *string
		reason                             *string
		duration                           *int64
		updatedAt, resolvedAt              *time.Time
	)
	if err := row.Scan(&g.TicketID, &name, &contact, &g.Description, &location, &dept,
		&category, &priority, &g.Status, &callID, &lang, &g.Escalated, &reason,
		&duration, &g.CreatedAt, &updatedAt, &resolvedAt); err != nil {
		return Grievance{}, err
	}
	g.CitizenName = deref(name)
	g.Contact = deref(contact)
	g.Location = deref(location)
	g.Department = deref(dept)
	g.Category = deref(category)
	g.Priority = deref(priority)
	g.CallID = deref(callID)
	g.Language = deref(lang)
	g.EscalationReason = deref(reason)
	g.CallDuration = duration
	g.UpdatedAt = updatedAt
	g.ResolvedAt = resolvedAt
	return g, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
