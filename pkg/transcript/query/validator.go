package query

import (
	"fmt"

	"scribe-hq/vellum/pkg/transcript"
)

const (
	// DefaultLimit is the number of entries returned when none is requested.
	DefaultLimit = 100

	// MaxLimit is the maximum number of entries a single query may return.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"start_time":    true,
	"recorded_time": true,
	"total_tokens":  true,
	"duration":      true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// ValidStatuses contains the valid entry status filters.
var ValidStatuses = map[string]bool{
	transcript.StatusOK:      true,
	transcript.StatusError:   true,
	transcript.StatusAborted: true,
}

// Validate checks a query and returns an error for invalid parameters.
func Validate(q *transcript.Query) error {
	if q.Limit < 0 {
		return transcript.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return transcript.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	if q.Offset < 0 {
		return transcript.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return transcript.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return transcript.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return transcript.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.MinTokens != nil && q.MaxTokens != nil && *q.MinTokens > *q.MaxTokens {
		return transcript.NewQueryError(q, fmt.Errorf("min_tokens must be <= max_tokens"))
	}

	if q.Status != "" && !ValidStatuses[q.Status] {
		return transcript.NewQueryError(q, fmt.Errorf("invalid status: %s (must be 'ok', 'error', or 'aborted')", q.Status))
	}

	return nil
}

// ApplyDefaults fills in default values for limit and sorting.
func ApplyDefaults(q *transcript.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "start_time"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
