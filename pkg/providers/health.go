package providers

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 5 * time.Second

// ProbeResult is the outcome of one provider reachability probe.
type ProbeResult struct {
	// Provider is the backend that was probed
	Provider string

	// Healthy is true when the backend answered the probe
	Healthy bool

	// Latency is how long the probe took
	Latency time.Duration

	// Err describes the failure when Healthy is false
	Err error
}

// ProbeTarget pairs an adapter with the credential to probe it with.
type ProbeTarget struct {
	Adapter    Adapter
	Credential Credential
}

// Probe pings one adapter with a bounded timeout and reports the outcome.
func Probe(ctx context.Context, target ProbeTarget, timeout time.Duration) ProbeResult {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := target.Adapter.Ping(probeCtx, target.Credential)
	latency := time.Since(start)

	result := ProbeResult{
		Provider: target.Adapter.Name(),
		Healthy:  err == nil,
		Latency:  latency,
		Err:      err,
	}

	if err != nil {
		slog.Debug("provider probe failed",
			"provider", result.Provider,
			"latency", latency,
			"error", err,
		)
	} else {
		slog.Debug("provider probe passed",
			"provider", result.Provider,
			"latency", latency,
		)
	}

	return result
}

// ProbeAll probes every target concurrently and returns the results sorted
// by provider name. One slow or unreachable backend never delays the
// others beyond the shared timeout.
func ProbeAll(ctx context.Context, targets []ProbeTarget, timeout time.Duration) []ProbeResult {
	results := make([]ProbeResult, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target ProbeTarget) {
			defer wg.Done()
			results[i] = Probe(ctx, target, timeout)
		}(i, target)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Provider < results[j].Provider
	})
	return results
}
