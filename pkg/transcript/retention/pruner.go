package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scribe-hq/vellum/pkg/transcript"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// Days is the number of days to retain journal entries.
	// 0 means keep entries forever (no age-based pruning).
	Days int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables scheduling;
	// Prune can still be called manually.
	PruneSchedule string

	// MaxEntries is the maximum number of entries to keep.
	// 0 means unlimited.
	MaxEntries int64
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		Days:          30,
		PruneSchedule: "0 3 * * *",
		MaxEntries:    0,
	}
}

// Pruner enforces retention limits on journal entries.
type Pruner struct {
	storage   transcript.Storage
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage transcript.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "transcript.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Prune deletes journal entries older than the retention period or
// exceeding the maximum entry count.
//
// Pruning runs in two phases:
//
//  1. Age-based: delete entries older than Days
//  2. Count-based: if total entries exceed MaxEntries, delete oldest
//
// Returns the total number of entries deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
	}

	if p.config.MaxEntries > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
	}

	if totalDeleted > 0 {
		p.logger.Info("transcript pruning completed",
			"deleted", totalDeleted,
			"retention_days", p.config.Days,
			"max_entries", p.config.MaxEntries,
		)
	} else {
		p.logger.Debug("transcript pruning completed, nothing to delete",
			"retention_days", p.config.Days,
			"max_entries", p.config.MaxEntries,
		)
	}

	return totalDeleted, nil
}

// pruneByAge deletes entries older than the retention period.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.Days)

	deleted, err := p.storage.Delete(ctx, &transcript.Query{EndTime: &cutoff})
	if err != nil {
		return 0, transcript.NewRetentionError(p.config.Days, err)
	}

	if deleted > 0 {
		p.logger.Debug("pruned entries by age",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}

	return deleted, nil
}

// pruneByCount deletes the oldest entries when the total exceeds
// MaxEntries.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &transcript.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}

	if count <= p.config.MaxEntries {
		return 0, nil
	}

	toDelete := count - p.config.MaxEntries

	// Fetch the oldest entries to find the deletion cutoff. Entries that
	// share the cutoff timestamp are all deleted, so the pass may remove
	// slightly more than the strict overage.
	oldest, err := p.storage.Query(ctx, &transcript.Query{
		SortBy:    "start_time",
		SortOrder: "asc",
		Limit:     int(toDelete),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query oldest entries: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	cutoff := oldest[len(oldest)-1].StartTime

	deleted, err := p.storage.Delete(ctx, &transcript.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}

	p.logger.Debug("pruned entries by count",
		"deleted", deleted,
		"max_entries", p.config.MaxEntries,
		"cutoff", cutoff,
	)

	return deleted, nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning, or nil when
// the scheduler is not running.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
