package store

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Verify the database file doesn't exist yet
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	var name string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		"events",
	).Scan(&name)
	if err != nil {
		t.Errorf("events table should exist after migrations: %v", err)
	}
}

func TestEventRepository_RecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	if err := repo.Record(EventSessionStarted, "john", ""); err != nil {
		t.Fatalf("failed to record event: %v", err)
	}
	if err := repo.Record(EventCommand, "john", "scroll_down"); err != nil {
		t.Fatalf("failed to record event: %v", err)
	}
	if err := repo.Record(EventSessionStopped, "john", ""); err != nil {
		t.Fatalf("failed to record event: %v", err)
	}

	events, err := repo.Recent(10)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for _, e := range events {
		if e.ID == "" {
			t.Error("event should have an assigned ID")
		}
		if e.Username != "john" {
			t.Errorf("expected username john, got %q", e.Username)
		}
	}
}

func TestEventRepository_RecentLimit(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	for i := 0; i < 5; i++ {
		if err := repo.Record(EventCommand, "john", "click"); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
	}

	events, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events with limit 2, got %d", len(events))
	}
}

func TestEventRepository_ByUser(t *testing.T) {
	s := newTestStore(t)
	repo := s.Events()

	if err := repo.Record(EventCommand, "john", "click"); err != nil {
		t.Fatalf("failed to record event: %v", err)
	}
	if err := repo.Record(EventCommand, "sarah", "scroll_up"); err != nil {
		t.Fatalf("failed to record event: %v", err)
	}

	events, err := repo.ByUser("sarah", 10)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event for sarah, got %d", len(events))
	}
	if events[0].Detail != "scroll_up" {
		t.Errorf("expected detail scroll_up, got %q", events[0].Detail)
	}
}
