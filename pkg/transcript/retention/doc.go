// Package retention prunes old journal entries.
//
// Pruning runs in two phases: entries older than the configured number of
// days are deleted first, then the oldest entries beyond the maximum
// entry count. Either limit can be disabled by setting it to zero.
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    Days:          30,
//	    PruneSchedule: "0 3 * * *", // daily at 3 AM
//	    MaxEntries:    100000,
//	})
//
//	if err := pruner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pruner.Stop()
//
// The scheduler accepts standard five-field cron expressions. An empty
// schedule disables automatic pruning; Prune can still be called
// directly:
//
//	deleted, err := pruner.Prune(ctx)
//
// Stop waits for a running pruning job to finish, and cancelling the
// context passed to Start also stops the scheduler.
package retention
