package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestGetOrCreate_Idempotent(t *testing.T) {
	s := NewStore(Options{HistoryMax: 20, HistoryKeep: 18})

	a := s.GetOrCreate("call-1")
	b := s.GetOrCreate("call-1")
	if a != b {
		t.Error("expected the same session for repeated GetOrCreate")
	}
	if a.State != StateCollecting {
		t.Errorf("expected COLLECTING, got %s", a.State)
	}
	if len(a.History) != 0 {
		t.Errorf("expected empty history, got %d entries", len(a.History))
	}
	if a.CompletedCount() != 0 {
		t.Errorf("expected no completed intents, got %d", a.CompletedCount())
	}
	if a.Language != "english" {
		t.Errorf("expected default language english, got %s", a.Language)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 session, got %d", s.Len())
	}
}

func TestRemove_Idempotent(t *testing.T) {
	s := NewStore(Options{})
	s.GetOrCreate("call-1")

	s.Remove("call-1")
	s.Remove("call-1")
	s.Remove("never-existed")

	if s.Len() != 0 {
		t.Errorf("expected 0 sessions, got %d", s.Len())
	}
	if _, ok := s.Get("call-1"); ok {
		t.Error("expected call-1 to be gone")
	}
}

func TestAcquire_RejectsDuplicate(t *testing.T) {
	s := NewStore(Options{})

	sess, release, err := s.Acquire("call-1")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	sess.AppendUser("hello")

	if _, _, err := s.Acquire("call-1"); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}

	got, ok := s.Get("call-1")
	if !ok || got != sess {
		t.Fatal("expected existing session to be untouched")
	}
	if len(got.History) != 1 {
		t.Errorf("expected history preserved, got %d entries", len(got.History))
	}

	release()
	release()
	if s.Len() != 0 {
		t.Errorf("expected session removed after release, got %d", s.Len())
	}

	if _, release2, err := s.Acquire("call-1"); err != nil {
		t.Errorf("expected reacquire after release to succeed, got %v", err)
	} else {
		release2()
	}
}

func TestAcquire_StaleReleaseKeepsNewClaim(t *testing.T) {
	s := NewStore(Options{})

	_, release1, err := s.Acquire("call-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	s.Remove("call-1")

	sess2, release2, err := s.Acquire("call-1")
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	defer release2()

	release1()
	got, ok := s.Get("call-1")
	if !ok || got != sess2 {
		t.Error("expected stale release not to remove the newer session")
	}
}

func TestAcquire_ClaimsExistingUnclaimed(t *testing.T) {
	s := NewStore(Options{})
	pre := s.GetOrCreate("call-1")

	sess, release, err := s.Acquire("call-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()
	if sess != pre {
		t.Error("expected Acquire to claim the pre-created session")
	}
}

func TestAcquire_Concurrent(t *testing.T) {
	s := NewStore(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("call-%d", i)
			_, release, err := s.Acquire(id)
			if err != nil {
				t.Errorf("acquire %s: %v", id, err)
				return
			}
			release()
		}(i)
	}
	wg.Wait()

	if s.Len() != 0 {
		t.Errorf("expected all sessions released, got %d", s.Len())
	}
}
