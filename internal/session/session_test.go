package session

import (
	"fmt"
	"testing"
)

func TestHistoryBounding(t *testing.T) {
	s := NewStore(Options{HistoryMax: 20, HistoryKeep: 18})
	sess := s.GetOrCreate("call-1")

	for i := 0; i < 35; i++ {
		sess.AppendUser(fmt.Sprintf("turn %d", i))
		if len(sess.History) > 20 {
			t.Fatalf("history exceeded cap: %d", len(sess.History))
		}
	}

	last := sess.History[len(sess.History)-1].Content
	if last != "turn 34" {
		t.Errorf("expected most recent entry last, got %q", last)
	}
	for i := 1; i < len(sess.History); i++ {
		var prev, cur int
		fmt.Sscanf(sess.History[i-1].Content, "turn %d", &prev)
		fmt.Sscanf(sess.History[i].Content, "turn %d", &cur)
		if cur != prev+1 {
			t.Fatalf("expected contiguous order, got %d after %d", cur, prev)
		}
	}
}

func TestHistoryBounding_TrimsToKeep(t *testing.T) {
	s := NewStore(Options{HistoryMax: 4, HistoryKeep: 3})
	sess := s.GetOrCreate("call-1")

	for i := 0; i < 5; i++ {
		sess.AppendAssistant(fmt.Sprintf("m%d", i))
	}

	want := []string{"m2", "m3", "m4"}
	if len(sess.History) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(sess.History))
	}
	for i, w := range want {
		if sess.History[i].Content != w {
			t.Errorf("entry %d: expected %s, got %s", i, w, sess.History[i].Content)
		}
		if sess.History[i].Role != RoleAssistant {
			t.Errorf("entry %d: expected assistant role, got %s", i, sess.History[i].Role)
		}
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	sess := NewStore(Options{}).GetOrCreate("call-1")
	sess.AppendUser("hello")

	snap := sess.Snapshot()
	snap[0].Content = "changed"
	if sess.History[0].Content != "hello" {
		t.Error("expected snapshot mutation not to affect history")
	}
}

func TestMarkCompleted(t *testing.T) {
	sess := NewStore(Options{}).GetOrCreate("call-1")

	if _, ok := sess.Completed("register_grievance:abc"); ok {
		t.Fatal("expected no completed intent")
	}
	sess.MarkCompleted("register_grievance:abc", Intent{Tool: "register_grievance", TicketID: "DEL-ABC123"})
	sess.MarkCompleted("record_feedback:def", Intent{Tool: "record_feedback"})

	in, ok := sess.Completed("register_grievance:abc")
	if !ok || in.TicketID != "DEL-ABC123" {
		t.Errorf("expected stored ticket DEL-ABC123, got %+v", in)
	}
	if sess.CompletedCount() != 2 {
		t.Errorf("expected 2 completed intents, got %d", sess.CompletedCount())
	}
	if len(sess.TicketIDs) != 1 || sess.TicketIDs[0] != "DEL-ABC123" {
		t.Errorf("expected ticket ids [DEL-ABC123], got %v", sess.TicketIDs)
	}
}
