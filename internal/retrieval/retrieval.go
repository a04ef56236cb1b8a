// Package retrieval supplies bounded reference text for a caller's question.
package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const (
	maxDocs   = 3
	separator = "\n\n---\n\n"
)

// Searcher finds documents relevant to free text.
type Searcher interface {
	SearchDocuments(ctx context.Context, query string, limit int) ([]string, error)
}

type Options struct {
	MaxChars int
	Timeout  time.Duration
}

// Provider returns at most maxDocs documents, capped at MaxChars, within
// Timeout. Any failure yields empty context.
type Provider struct {
	searcher Searcher
	maxChars int
	timeout  time.Duration
}

func NewProvider(s Searcher, opts Options) *Provider {
	if opts.MaxChars <= 0 {
		opts.MaxChars = 1200
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	return &Provider{searcher: s, maxChars: opts.MaxChars, timeout: opts.Timeout}
}

// Context returns reference text for query, or "" when nothing useful is
// available in time.
func (p *Provider) Context(ctx context.Context, query string) string {
	if p == nil || p.searcher == nil || strings.TrimSpace(query) == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	docs, err := p.searcher.SearchDocuments(ctx, query, maxDocs)
	if err != nil {
		slog.Warn("context retrieval failed", "error", err)
		return ""
	}

	var parts []string
	for _, d := range docs {
		if d = strings.TrimSpace(d); d != "" {
			parts = append(parts, d)
		}
		if len(parts) == maxDocs {
			break
		}
	}
	return truncate(strings.Join(parts, separator), p.maxChars)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
