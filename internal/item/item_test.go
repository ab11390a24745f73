package item

import (
	"testing"
	"time"
)

func TestNewSeedsSystemComment(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	it := New("  Fix login  ", TypeDefect, " Acme ", " Portal ", true, now)

	if it.ID == "" {
		t.Fatal("expected a generated ID")
	}

	if got, want := it.Title, "Fix login"; got != want {
		t.Errorf("Title = %q, want %q", got, want)
	}

	if got, want := it.Client, "Acme"; got != want {
		t.Errorf("Client = %q, want %q", got, want)
	}

	if got, want := it.Status, StatusReady; got != want {
		t.Errorf("Status = %q, want %q", got, want)
	}

	if len(it.CommentHistory) != 1 {
		t.Fatalf("CommentHistory has %d entries, want 1", len(it.CommentHistory))
	}

	entry := it.CommentHistory[0]
	if entry.Actor != ActorSystem || entry.Comment != "Task created" {
		t.Errorf("seed entry = %q by %q, want %q by %q", entry.Comment, entry.Actor, "Task created", ActorSystem)
	}

	if !entry.At.Equal(now) {
		t.Errorf("seed entry At = %v, want %v", entry.At, now)
	}
}

func TestNewUnknownTypeFallsBackToTask(t *testing.T) {
	t.Parallel()

	it := New("x", "epic", "c", "", true, time.Now())

	if got, want := it.Type, TypeTask; got != want {
		t.Errorf("Type = %q, want %q", got, want)
	}
}

func TestRoundAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{200.0, 200.0},
		{199.999, 200.0},
		{0.005, 0.01},
		{123.456, 123.46},
		{0, 0},
	}

	for _, tt := range tests {
		if got := RoundAmount(tt.in); got != tt.want {
			t.Errorf("RoundAmount(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRecomputeAmount(t *testing.T) {
	t.Parallel()

	hours := 2.5
	rate := 80.0

	it := Item{Hours: &hours, RateAtCompletion: &rate}
	it.RecomputeAmount()

	if it.Amount == nil || *it.Amount != 200.0 {
		t.Fatalf("Amount = %v, want 200.0", it.Amount)
	}

	// A stored amount is never trusted when an input is missing.
	stale := 999.0
	it = Item{Hours: &hours, Amount: &stale}
	it.RecomputeAmount()

	if it.Amount != nil {
		t.Errorf("Amount = %v, want nil without a rate", *it.Amount)
	}
}

func TestActiveWithStatus(t *testing.T) {
	t.Parallel()

	it := Item{Status: StatusReady}
	if !it.ActiveWithStatus(StatusReady) {
		t.Error("ready unarchived item should be active")
	}

	it.Archived = true
	if it.ActiveWithStatus(StatusReady) {
		t.Error("archived item should never be active")
	}
}

func TestSortedHistoryIsChronologicalAndStable(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	it := Item{CommentHistory: []CommentEntry{
		{Actor: ActorDev, Comment: "third", At: base.Add(2 * time.Hour)},
		{Actor: ActorSystem, Comment: "first", At: base},
		{Actor: ActorClient, Comment: "second-a", At: base.Add(time.Hour)},
		{Actor: ActorDev, Comment: "second-b", At: base.Add(time.Hour)},
	}}

	got := it.SortedHistory()
	want := []string{"first", "second-a", "second-b", "third"}

	for idx, comment := range want {
		if got[idx].Comment != comment {
			t.Errorf("history[%d] = %q, want %q", idx, got[idx].Comment, comment)
		}
	}

	// The original slice is untouched.
	if it.CommentHistory[0].Comment != "third" {
		t.Error("SortedHistory must not mutate the item")
	}
}
