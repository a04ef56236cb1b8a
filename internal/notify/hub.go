// Package notify fans events out to dashboard observers and other sinks.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/MikeSquared-Agency/vani/internal/events"
)

// Observer receives broadcast events. A Send error removes the observer.
type Observer interface {
	Send(ctx context.Context, e events.Event) error
	Close() error
}

// Hub is a best-effort, at-most-once broadcaster. Delivery is never retried
// or buffered and a slow observer never blocks registration.
type Hub struct {
	mu        sync.Mutex
	observers map[*registration]struct{}
}

type registration struct {
	obs Observer
}

func NewHub() *Hub {
	return &Hub{observers: make(map[*registration]struct{})}
}

// Register adds an observer and returns a func that removes it.
func (h *Hub) Register(obs Observer) (unregister func()) {
	reg := &registration{obs: obs}
	h.mu.Lock()
	h.observers[reg] = struct{}{}
	h.mu.Unlock()
	return func() { h.remove(reg) }
}

func (h *Hub) remove(reg *registration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.observers[reg]; !ok {
		return false
	}
	delete(h.observers, reg)
	return true
}

// Broadcast pushes e to every observer registered at the time of the call.
// Sends run concurrently, so the call lasts as long as the slowest observer
// rather than the sum of all of them. Observers that fail are dropped and
// closed.
func (h *Hub) Broadcast(ctx context.Context, e events.Event) {
	h.mu.Lock()
	snapshot := make([]*registration, 0, len(h.observers))
	for reg := range h.observers {
		snapshot = append(snapshot, reg)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, reg := range snapshot {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reg.obs.Send(ctx, e); err != nil {
				slog.Debug("dropping dashboard observer", "event", e.Event, "error", err)
				if h.remove(reg) {
					_ = reg.obs.Close()
				}
			}
		}()
	}
	wg.Wait()
}

// Notify implements the dispatcher's notifier contract. Broadcast failures
// are per-observer and never surface to the caller.
func (h *Hub) Notify(ctx context.Context, e events.Event) error {
	h.Broadcast(ctx, e)
	return nil
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Sink is anything that accepts events.
type Sink interface {
	Notify(ctx context.Context, e events.Event) error
}

// Multi delivers each event to all sinks in order. Every sink is attempted;
// the joined errors are returned for logging.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, e events.Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
