package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/vani/internal/events"
)

// alertWindow suppresses repeats of the same alert on the same call.
const alertWindow = 30 * time.Second

// Alerter posts emergency and escalation alerts to a Slack channel via
// chat.postMessage.
type Alerter struct {
	token   string
	channel string
	client  *http.Client
	apiURL  string

	mu       sync.Mutex
	lastSent map[string]time.Time
	wg       sync.WaitGroup
}

// NewAlerter creates a new Slack alerter.
func NewAlerter(token, channel string) *Alerter {
	return &Alerter{
		token:    token,
		channel:  channel,
		client:   &http.Client{Timeout: 10 * time.Second},
		apiURL:   "https://slack.com/api/chat.postMessage",
		lastSent: make(map[string]time.Time),
	}
}

// Notify posts alert-worthy events in the background. Other events are
// ignored. It never blocks the caller on Slack.
func (a *Alerter) Notify(ctx context.Context, e events.Event) error {
	if !alertable(e) {
		return nil
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Post(context.WithoutCancel(ctx), e); err != nil {
			slog.Warn("failed to post alert to Slack", "event", e.Event, "call_id", e.CallID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until in-flight posts have finished.
func (a *Alerter) Wait() {
	a.wg.Wait()
}

// suppressionKey identifies an alert by what it reports, so a second,
// different emergency or ticket on the same call still goes out.
func suppressionKey(e events.Event) string {
	if e.Event == events.TypeGrievanceEscalated {
		return e.Event + "|" + e.CallID + "|" + e.DataField("ticket_id")
	}
	return e.Event + "|" + e.CallID + "|" +
		strings.ToLower(e.DataField("emergency_type")) + "|" +
		strings.ToLower(strings.TrimSpace(e.DataField("location")))
}

func alertable(e events.Event) bool {
	return e.Event == events.TypeEmergencyAlert || e.Event == events.TypeGrievanceEscalated
}

// Post sends a Block Kit message for an event. Repeats of the same alert
// on the same call inside the alert window are skipped.
func (a *Alerter) Post(ctx context.Context, e events.Event) error {
	key := suppressionKey(e)
	a.mu.Lock()
	if last, ok := a.lastSent[key]; ok && time.Since(last) < alertWindow {
		a.mu.Unlock()
		return nil
	}
	a.lastSent[key] = time.Now()
	for k, t := range a.lastSent {
		if time.Since(t) >= alertWindow {
			delete(a.lastSent, k)
		}
	}
	a.mu.Unlock()

	title, fields, summary := render(e)

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": title,
			},
		},
		{
			"type":   "section",
			"fields": fields,
		},
		{
			"type": "context",
			"elements": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("Call %s at %s", orDash(e.CallID), e.Timestamp.UTC().Format(time.RFC3339))},
			},
		},
	}

	body, err := json.Marshal(map[string]any{
		"channel": a.channel,
		"blocks":  blocks,
		"text":    summary,
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}

	slog.Info("alert posted to Slack", "channel", a.channel, "event", e.Event, "call_id", e.CallID)
	return nil
}

func render(e events.Event) (string, []map[string]any, string) {
	field := func(label, value string) map[string]any {
		return map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*%s:*\n%s", label, orDash(value))}
	}
	if e.Event == events.TypeGrievanceEscalated {
		ticket := e.DataField("ticket_id")
		return "Grievance Escalated",
			[]map[string]any{
				field("Ticket", ticket),
				field("Department", e.DataField("department")),
				field("Reason", e.DataField("reason")),
				field("Status", e.DataField("status")),
			},
			fmt.Sprintf("Grievance %s escalated: %s", orDash(ticket), orDash(e.DataField("reason")))
	}
	kind := e.DataField("emergency_type")
	location := e.DataField("location")
	return "Emergency Reported",
		[]map[string]any{
			field("Type", kind),
			field("Location", location),
			field("Contact", e.DataField("phone_number")),
			field("Description", e.DataField("description")),
		},
		fmt.Sprintf("Emergency: %s at %s", orDash(kind), orDash(location))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
