package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"scribe-hq/vellum/pkg/transcript"
	"scribe-hq/vellum/pkg/transcript/storage"
)

// seedAged stores n entries whose calls began the given number of days
// ago, spaced a minute apart so count-based cutoffs are unambiguous.
func seedAged(t *testing.T, store transcript.Storage, n, daysAgo int, prefix string) {
	t.Helper()

	base := time.Now().AddDate(0, 0, -daysAgo)
	for i := 0; i < n; i++ {
		entry := &transcript.Entry{
			ID:           fmt.Sprintf("%s-%d", prefix, i),
			RequestID:    fmt.Sprintf("req-%s-%d", prefix, i),
			StartTime:    base.Add(time.Duration(i) * time.Minute),
			RecordedTime: base.Add(time.Duration(i) * time.Minute),
			Provider:     "openai",
			Model:        "gpt-4o-mini",
			Status:       transcript.StatusOK,
			Attempts:     1,
		}
		if err := store.Store(context.Background(), entry); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}
}

func TestPruner_PruneByAge(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	seedAged(t, store, 5, 40, "old")   // past the retention window
	seedAged(t, store, 5, 1, "recent") // inside the window

	pruner := NewPruner(store, &Config{Days: 30})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 5 {
		t.Errorf("Expected 5 deleted, got %d", deleted)
	}

	count, _ := store.Count(context.Background(), &transcript.Query{})
	if count != 5 {
		t.Errorf("Expected 5 remaining, got %d", count)
	}

	// Only recent entries survive
	remaining, _ := store.Query(context.Background(), &transcript.Query{})
	for _, e := range remaining {
		if time.Since(e.StartTime) > 30*24*time.Hour {
			t.Errorf("Entry %s older than retention window survived", e.ID)
		}
	}
}

func TestPruner_PruneByCount(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	seedAged(t, store, 10, 1, "e")

	pruner := NewPruner(store, &Config{MaxEntries: 4})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 6 {
		t.Errorf("Expected 6 deleted, got %d", deleted)
	}

	remaining, _ := store.Query(context.Background(), &transcript.Query{SortBy: "start_time", SortOrder: "asc"})
	if len(remaining) != 4 {
		t.Fatalf("Expected 4 remaining, got %d", len(remaining))
	}
	// The oldest six are gone; e6..e9 remain
	if remaining[0].ID != "e-6" {
		t.Errorf("Expected oldest survivor e-6, got %s", remaining[0].ID)
	}
}

func TestPruner_PruneBothPhases(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	seedAged(t, store, 4, 40, "old")
	seedAged(t, store, 6, 1, "recent")

	pruner := NewPruner(store, &Config{Days: 30, MaxEntries: 3})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	// Age removes 4 old, count trims 6 recent down to 3
	if deleted != 7 {
		t.Errorf("Expected 7 deleted, got %d", deleted)
	}

	count, _ := store.Count(context.Background(), &transcript.Query{})
	if count != 3 {
		t.Errorf("Expected 3 remaining, got %d", count)
	}
}

func TestPruner_Disabled(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	seedAged(t, store, 5, 100, "ancient")

	// Both limits zero: nothing is ever pruned
	pruner := NewPruner(store, &Config{Days: 0, MaxEntries: 0})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted, got %d", deleted)
	}

	count, _ := store.Count(context.Background(), &transcript.Query{})
	if count != 5 {
		t.Errorf("Expected all 5 entries kept, got %d", count)
	}
}

func TestPruner_CountWithinLimit(t *testing.T) {
	store := storage.NewMemoryStorage()
	defer store.Close()

	seedAged(t, store, 3, 1, "e")

	pruner := NewPruner(store, &Config{MaxEntries: 100})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted under the limit, got %d", deleted)
	}
}

func TestPruner_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Days != 30 {
		t.Errorf("Expected default 30 days, got %d", cfg.Days)
	}
	if cfg.PruneSchedule != "0 3 * * *" {
		t.Errorf("Expected default daily schedule, got %q", cfg.PruneSchedule)
	}
	if cfg.MaxEntries != 0 {
		t.Errorf("Expected unlimited entries by default, got %d", cfg.MaxEntries)
	}

	// Nil config falls back to defaults
	pruner := NewPruner(storage.NewMemoryStorage(), nil)
	if pruner.config.Days != 30 {
		t.Errorf("Expected nil config to default to 30 days, got %d", pruner.config.Days)
	}
}
