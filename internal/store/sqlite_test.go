package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ohmyhungrygod/gameclient/internal/game"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListSessions(t *testing.T) {
	s := openTestStore(t)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := &Record{
		ID:           uuid.New(),
		Mode:         "networked",
		RoomID:       uuid.New().String(),
		Outcome:      OutcomeFinished,
		Score:        17,
		TotalOrders:  5,
		SuccessCount: 4,
		FailCount:    1,
		Counters:     map[game.ItemKind]int{game.KindBanana: 10, game.KindPeach: 7},
		StartedAt:    started,
		EndedAt:      started.Add(4 * time.Minute),
	}
	if err := s.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := s.ListSessions(10)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	g := got[0]
	if g.ID != rec.ID || g.Outcome != OutcomeFinished || g.Score != 17 {
		t.Fatalf("record = %+v", g)
	}
	if g.Counters[game.KindBanana] != 10 || g.Counters[game.KindPeach] != 7 {
		t.Fatalf("counters = %v", g.Counters)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := &Record{
			Mode:      "offline",
			Outcome:   OutcomeOffline,
			Score:     i,
			StartedAt: base,
			EndedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveSession(rec); err != nil {
			t.Fatalf("SaveSession %d: %v", i, err)
		}
	}

	got, err := s.ListSessions(2)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Score != 2 || got[1].Score != 1 {
		t.Fatalf("order = %d, %d, want newest first", got[0].Score, got[1].Score)
	}
}

func TestSaveSessionAssignsID(t *testing.T) {
	s := openTestStore(t)

	rec := &Record{
		Mode:      "offline",
		Outcome:   OutcomeOffline,
		StartedAt: time.Now(),
		EndedAt:   time.Now(),
	}
	if err := s.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatal("SaveSession must assign an id")
	}
}
