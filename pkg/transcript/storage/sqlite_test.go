package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe-hq/vellum/pkg/transcript"
)

// createTempDB creates a temporary SQLite database using the pure-Go
// driver so the tests run without cgo.
func createTempDB(t *testing.T) (*SQLiteStorage, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "transcript.db")

	store, err := NewSQLiteStorage(&SQLiteConfig{
		Path:         dbPath,
		Driver:       DriverModernc,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}

	return store, dbPath
}

func TestSQLiteStorage_Initialize(t *testing.T) {
	store, dbPath := createTempDB(t)
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestSQLiteStorage_UnknownDriver(t *testing.T) {
	_, err := NewSQLiteStorage(&SQLiteConfig{
		Path:   filepath.Join(t.TempDir(), "transcript.db"),
		Driver: "postgres",
	})
	if err == nil {
		t.Fatal("Expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "postgres") {
		t.Errorf("Error should name the driver, got: %v", err)
	}
}

func TestSQLiteStorage_CreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dirs", "transcript.db")

	store, err := NewSQLiteStorage(&SQLiteConfig{
		Path:   dbPath,
		Driver: DriverModernc,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestSQLiteStorage_StoreAndQuery(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	entry := &transcript.Entry{
		ID:           "entry-1",
		RequestID:    "req-1",
		StartTime:    now,
		RecordedTime: now.Add(80 * time.Millisecond),
		Provider:     "deepseek",
		Model:        "deepseek-chat",
		Streaming:    true,
		Status:       transcript.StatusOK,
		Attempts:     2,
		Duration:     1520 * time.Millisecond,
		TotalTokens:  314,
		FinishReason: "stop",
	}

	if err := store.Store(ctx, entry); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	results, err := store.Query(ctx, &transcript.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(results))
	}

	got := results[0]
	if got.ID != "entry-1" {
		t.Errorf("Expected ID 'entry-1', got %q", got.ID)
	}
	if got.RequestID != "req-1" {
		t.Errorf("Expected RequestID 'req-1', got %q", got.RequestID)
	}
	if !got.StartTime.Equal(now) {
		t.Errorf("Expected start time %v, got %v", now, got.StartTime)
	}
	if got.Provider != "deepseek" || got.Model != "deepseek-chat" {
		t.Errorf("Provider/model mismatch: %s/%s", got.Provider, got.Model)
	}
	if !got.Streaming {
		t.Error("Expected streaming true")
	}
	if got.Status != transcript.StatusOK {
		t.Errorf("Expected status ok, got %q", got.Status)
	}
	if got.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", got.Attempts)
	}
	if got.Duration != 1520*time.Millisecond {
		t.Errorf("Expected duration 1.52s, got %v", got.Duration)
	}
	if got.TotalTokens != 314 {
		t.Errorf("Expected 314 tokens, got %d", got.TotalTokens)
	}
	if got.FinishReason != "stop" {
		t.Errorf("Expected finish reason 'stop', got %q", got.FinishReason)
	}
	if got.ErrorKind != "" {
		t.Errorf("Expected empty error kind, got %q", got.ErrorKind)
	}
}

func TestSQLiteStorage_NullableFieldsRoundTrip(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	// Failed call: no finish reason, error kind set
	entry := &transcript.Entry{
		ID:           "entry-err",
		RequestID:    "req-err",
		StartTime:    now,
		RecordedTime: now,
		Provider:     "groq",
		Model:        "llama-3.1-8b-instant",
		Status:       transcript.StatusError,
		Attempts:     4,
		Duration:     8 * time.Second,
		ErrorKind:    "rate_limit",
	}

	if err := store.Store(ctx, entry); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	results, err := store.Query(ctx, &transcript.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(results))
	}

	got := results[0]
	if got.FinishReason != "" {
		t.Errorf("Expected empty finish reason, got %q", got.FinishReason)
	}
	if got.ErrorKind != "rate_limit" {
		t.Errorf("Expected error kind 'rate_limit', got %q", got.ErrorKind)
	}
	if got.TotalTokens != 0 {
		t.Errorf("Expected 0 tokens, got %d", got.TotalTokens)
	}
}

// seedEntries stores n entries spaced one minute apart, oldest first.
func seedEntries(t *testing.T, store *SQLiteStorage, n int) time.Time {
	t.Helper()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Duration(n) * time.Minute)

	for i := 0; i < n; i++ {
		entry := &transcript.Entry{
			ID:           fmt.Sprintf("e%d", i),
			RequestID:    fmt.Sprintf("req-%d", i),
			StartTime:    base.Add(time.Duration(i) * time.Minute),
			RecordedTime: base.Add(time.Duration(i) * time.Minute),
			Provider:     "openai",
			Model:        "gpt-4o-mini",
			Status:       transcript.StatusOK,
			Attempts:     1,
			Duration:     time.Duration(i+1) * 100 * time.Millisecond,
			TotalTokens:  (i + 1) * 10,
		}
		if i%3 == 0 {
			entry.Provider = "ollama"
			entry.Model = "llama3.2"
		}
		if err := store.Store(ctx, entry); err != nil {
			t.Fatalf("Store(e%d) failed: %v", i, err)
		}
	}

	return base
}

func TestSQLiteStorage_QueryFilters(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	base := seedEntries(t, store, 6) // e0,e3 ollama; e1,e2,e4,e5 openai

	results, err := store.Query(ctx, &transcript.Query{Provider: "ollama"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 ollama entries, got %d", len(results))
	}

	cutoff := base.Add(150 * time.Second) // between e2 and e3
	results, err = store.Query(ctx, &transcript.Query{StartTime: &cutoff})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 entries after cutoff, got %d", len(results))
	}

	minTokens := 40
	results, err = store.Query(ctx, &transcript.Query{MinTokens: &minTokens})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 entries with >= 40 tokens, got %d", len(results))
	}
}

func TestSQLiteStorage_SortAndPagination(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	seedEntries(t, store, 5)

	// Default: newest first
	results, err := store.Query(ctx, &transcript.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("Expected 5 entries, got %d", len(results))
	}
	if results[0].ID != "e4" {
		t.Errorf("Expected e4 first (newest), got %s", results[0].ID)
	}

	// Ascending by duration
	results, err = store.Query(ctx, &transcript.Query{SortBy: "duration", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if results[0].ID != "e0" {
		t.Errorf("Expected e0 first (shortest), got %s", results[0].ID)
	}

	// Limit and offset
	results, err = store.Query(ctx, &transcript.Query{SortBy: "start_time", SortOrder: "asc", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(results))
	}
	if results[0].ID != "e2" || results[1].ID != "e3" {
		t.Errorf("Expected e2, e3; got %s, %s", results[0].ID, results[1].ID)
	}
}

func TestSQLiteStorage_Count(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	seedEntries(t, store, 6)

	count, err := store.Count(ctx, &transcript.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 6 {
		t.Errorf("Expected count 6, got %d", count)
	}

	count, err = store.Count(ctx, &transcript.Query{Provider: "ollama"})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestSQLiteStorage_Delete(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	base := seedEntries(t, store, 6)

	cutoff := base.Add(150 * time.Second)
	deleted, err := store.Delete(ctx, &transcript.Query{EndTime: &cutoff})
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}

	count, err := store.Count(ctx, &transcript.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 remaining, got %d", count)
	}
}

func TestSQLiteStorage_QueryStream(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	seedEntries(t, store, 8)

	entriesCh, errCh, err := store.QueryStream(ctx, &transcript.Query{SortBy: "start_time", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("QueryStream() failed: %v", err)
	}

	var received []*transcript.Entry
	for entry := range entriesCh {
		received = append(received, entry)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	if len(received) != 8 {
		t.Fatalf("Expected 8 streamed entries, got %d", len(received))
	}
	if received[0].ID != "e0" || received[7].ID != "e7" {
		t.Errorf("Expected sorted stream, got %s..%s", received[0].ID, received[7].ID)
	}
}

func TestSQLiteStorage_ReopenExisting(t *testing.T) {
	store, dbPath := createTempDB(t)

	ctx := context.Background()
	seedEntries(t, store, 3)

	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Reopen: schema creation is idempotent and data survives
	reopened, err := NewSQLiteStorage(&SQLiteConfig{
		Path:   dbPath,
		Driver: DriverModernc,
	})
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(ctx, &transcript.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 entries after reopen, got %d", count)
	}
}
