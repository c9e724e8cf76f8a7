package storage

import (
	"context"
	"sort"
	"sync"

	"scribe-hq/vellum/pkg/transcript"
)

// MemoryStorage implements the Storage interface with an in-memory map.
// It backs the default "memory" journal configuration and tests; entries
// do not survive process restarts.
type MemoryStorage struct {
	entries map[string]*transcript.Entry
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]*transcript.Entry),
	}
}

// Store persists a journal entry in memory.
func (s *MemoryStorage) Store(ctx context.Context, entry *transcript.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so later caller mutations do not leak into storage
	entryCopy := *entry
	s.entries[entry.ID] = &entryCopy

	return nil
}

// Query retrieves journal entries matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *transcript.Query) ([]*transcript.Entry, error) {
	s.mu.RLock()
	var results []*transcript.Entry
	for _, entry := range s.entries {
		if matchesQuery(entry, query) {
			entryCopy := *entry
			results = append(results, &entryCopy)
		}
	}
	s.mu.RUnlock()

	sortEntries(results, query.SortBy, query.SortOrder)

	// Pagination after sorting
	start := query.Offset
	if start > len(results) {
		return []*transcript.Entry{}, nil
	}
	results = results[start:]

	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results, nil
}

// QueryStream returns a channel of journal entries. The channels are closed
// when the query completes or the context is cancelled.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *transcript.Query) (<-chan *transcript.Entry, <-chan error, error) {
	entriesCh := make(chan *transcript.Entry, 100)
	errCh := make(chan error, 1)

	// Snapshot under lock, then stream sorted results without holding it
	results, err := s.Query(ctx, query)
	if err != nil {
		close(entriesCh)
		close(errCh)
		return entriesCh, errCh, err
	}

	go func() {
		defer close(entriesCh)
		defer close(errCh)

		for _, entry := range results {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case entriesCh <- entry:
			}
		}
	}()

	return entriesCh, errCh, nil
}

// Count returns the number of journal entries matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *transcript.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, entry := range s.entries {
		if matchesQuery(entry, query) {
			count++
		}
	}

	return count, nil
}

// Delete removes journal entries matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *transcript.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, entry := range s.entries {
		if matchesQuery(entry, query) {
			delete(s.entries, id)
			deleted++
		}
	}

	return deleted, nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*transcript.Entry)
	return nil
}

// matchesQuery checks if an entry matches the query filters.
func matchesQuery(entry *transcript.Entry, query *transcript.Query) bool {
	if query.StartTime != nil && entry.StartTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && entry.StartTime.After(*query.EndTime) {
		return false
	}

	if query.RequestID != "" && entry.RequestID != query.RequestID {
		return false
	}
	if query.Provider != "" && entry.Provider != query.Provider {
		return false
	}
	if query.Model != "" && entry.Model != query.Model {
		return false
	}
	if query.Status != "" && entry.Status != query.Status {
		return false
	}
	if query.ErrorKind != "" && entry.ErrorKind != query.ErrorKind {
		return false
	}

	if query.MinTokens != nil && entry.TotalTokens < *query.MinTokens {
		return false
	}
	if query.MaxTokens != nil && entry.TotalTokens > *query.MaxTokens {
		return false
	}

	return true
}

// sortEntries orders entries by the requested sort field. Unknown fields
// fall back to start_time; empty order sorts descending (newest first).
func sortEntries(entries []*transcript.Entry, sortBy, sortOrder string) {
	asc := sortOrder == "asc"

	less := func(a, b *transcript.Entry) bool {
		switch sortBy {
		case "recorded_time":
			return a.RecordedTime.Before(b.RecordedTime)
		case "total_tokens":
			return a.TotalTokens < b.TotalTokens
		case "duration":
			return a.Duration < b.Duration
		default:
			return a.StartTime.Before(b.StartTime)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if asc {
			return less(entries[i], entries[j])
		}
		return less(entries[j], entries[i])
	})
}

// Clear removes all entries from storage (for testing).
func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*transcript.Entry)
}

// GetByID retrieves a single entry by ID (for testing).
func (s *MemoryStorage) GetByID(id string) *transcript.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil
	}

	entryCopy := *entry
	return &entryCopy
}

// Size returns the number of entries in storage (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
