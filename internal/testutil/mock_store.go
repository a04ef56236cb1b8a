package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/vani/internal/store"
)

// MockStore is a thread-safe in-memory implementation of store.DataStore for testing.
type MockStore struct {
	mu sync.Mutex

	Grievances   map[string]store.Grievance
	Transcripts  map[string]string // key: call id
	Escalations  []store.Escalation
	StatusChecks []store.StatusCheck
	Feedback     []store.Feedback
	Emergencies  []store.Emergency
	Documents    []string

	InsertErr    error
	EscalateErr  error
	FeedbackErr  error
	EmergencyErr error
	SearchErr    error
	ListErr      error
	// DuplicateTickets makes the next N grievance inserts fail with ErrDuplicateTicket.
	DuplicateTickets int

	InsertCalls    int
	EscalateCalls  int
	FeedbackCalls  int
	EmergencyCalls int
	SearchCalls    int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Grievances:  make(map[string]store.Grievance),
		Transcripts: make(map[string]string),
	}
}

func (m *MockStore) InsertGrievance(_ context.Context, g store.Grievance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if m.DuplicateTickets > 0 {
		m.DuplicateTickets--
		return store.ErrDuplicateTicket
	}
	if _, exists := m.Grievances[g.TicketID]; exists {
		return store.ErrDuplicateTicket
	}
	if g.Status == "" {
		g.Status = store.StatusOpen
	}
	g.CreatedAt = time.Now().UTC()
	m.Grievances[g.TicketID] = g
	return nil
}

// PutGrievance seeds a grievance without counting an insert.
func (m *MockStore) PutGrievance(g store.Grievance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.Status == "" {
		g.Status = store.StatusOpen
	}
	m.Grievances[g.TicketID] = g
}

func (m *MockStore) GetGrievance(_ context.Context, ticketID string) (store.Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.Grievances[ticketID]; ok {
		return g, nil
	}
	bare := strings.ReplaceAll(ticketID, "-", "")
	for id, g := range m.Grievances {
		if strings.ReplaceAll(id, "-", "") == bare {
			return g, nil
		}
	}
	return store.Grievance{}, store.ErrNotFound
}

func (m *MockStore) ListGrievances(_ context.Context, status string, limit int) ([]store.Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var results []store.Grievance
	for _, g := range m.Grievances {
		if status != "" && g.Status != status {
			continue
		}
		results = append(results, g)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TicketID < results[j].TicketID })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockStore) EscalateGrievance(_ context.Context, e store.Escalation) (store.Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EscalateCalls++
	if m.EscalateErr != nil {
		return store.Grievance{}, m.EscalateErr
	}
	g, ok := m.Grievances[e.TicketID]
	if !ok {
		return store.Grievance{}, store.ErrNotFound
	}
	g.Status = store.StatusEscalated
	g.Escalated++
	g.EscalationReason = e.Reason
	m.Grievances[e.TicketID] = g
	m.Escalations = append(m.Escalations, e)
	return g, nil
}

func (m *MockStore) LogStatusCheck(_ context.Context, c store.StatusCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusChecks = append(m.StatusChecks, c)
	return nil
}

func (m *MockStore) InsertFeedback(_ context.Context, f store.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedbackCalls++
	if m.FeedbackErr != nil {
		return m.FeedbackErr
	}
	m.Feedback = append(m.Feedback, f)
	return nil
}

func (m *MockStore) InsertEmergency(_ context.Context, e store.Emergency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmergencyCalls++
	if m.EmergencyErr != nil {
		return m.EmergencyErr
	}
	m.Emergencies = append(m.Emergencies, e)
	return nil
}

func (m *MockStore) SetCallDuration(_ context.Context, callID string, seconds int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tickets []string
	for id, g := range m.Grievances {
		if g.CallID != callID {
			continue
		}
		d := seconds
		g.CallDuration = &d
		m.Grievances[id] = g
		tickets = append(tickets, id)
	}
	sort.Strings(tickets)
	return tickets, nil
}

func (m *MockStore) AttachTranscript(_ context.Context, callID, transcript string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, g := range m.Grievances {
		if g.CallID == callID {
			n++
		}
	}
	if n > 0 {
		m.Transcripts[callID] = transcript
	}
	return n, nil
}

func (m *MockStore) SearchDocuments(_ context.Context, query string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	out := make([]string, 0, len(m.Documents))
	for _, d := range m.Documents {
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockStore) Close() {}

func (m *MockStore) GetInsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.InsertCalls
}

func (m *MockStore) GrievanceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Grievances)
}

// TicketIDs returns the stored ticket ids, sorted.
func (m *MockStore) TicketIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Grievances))
	for id := range m.Grievances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *MockStore) TranscriptFor(callID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Transcripts[callID]
	return t, ok
}
