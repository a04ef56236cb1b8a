package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

type fakeSearcher struct {
	docs  []string
	err   error
	delay time.Duration
	limit int
}

func (f *fakeSearcher) SearchDocuments(ctx context.Context, _ string, limit int) ([]string, error) {
	f.limit = limit
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.docs, f.err
}

func TestContext_JoinsDocs(t *testing.T) {
	s := &fakeSearcher{docs: []string{"Office hours are 9 to 5.", "  ", "Helpline: 1031.", "Third", "Fourth"}}
	p := NewProvider(s, Options{})

	got := p.Context(context.Background(), "office hours")
	want := "Office hours are 9 to 5.\n\n---\n\nHelpline: 1031.\n\n---\n\nThird"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if s.limit != 3 {
		t.Errorf("expected limit 3, got %d", s.limit)
	}
}

func TestContext_Capped(t *testing.T) {
	s := &fakeSearcher{docs: []string{strings.Repeat("पानी ", 500)}}
	p := NewProvider(s, Options{MaxChars: 100})

	got := p.Context(context.Background(), "water")
	if n := utf8.RuneCountInString(got); n != 100 {
		t.Errorf("expected 100 runes, got %d", n)
	}
	if !utf8.ValidString(got) {
		t.Error("expected valid utf-8 after truncation")
	}
}

func TestContext_FailuresDegradeToEmpty(t *testing.T) {
	cases := map[string]*Provider{
		"error":   NewProvider(&fakeSearcher{err: errors.New("db down")}, Options{}),
		"timeout": NewProvider(&fakeSearcher{docs: []string{"late"}, delay: time.Second}, Options{Timeout: 20 * time.Millisecond}),
		"nil":     nil,
	}
	for name, p := range cases {
		if got := p.Context(context.Background(), "anything"); got != "" {
			t.Errorf("%s: expected empty context, got %q", name, got)
		}
	}

	p := NewProvider(&fakeSearcher{docs: []string{"x"}}, Options{})
	if got := p.Context(context.Background(), "   "); got != "" {
		t.Errorf("expected empty context for blank query, got %q", got)
	}
}
