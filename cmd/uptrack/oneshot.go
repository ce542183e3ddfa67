package main

import (
	"context"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/uptrack/uptrack/internal/monitor"
)

// RunOneshot runs a cycle of every site in parallel, and prints the outcomes as JSON lines.
// The exit code is 1 if any site is not up or any cycle failed.
func (cmd *UptrackCommand) RunOneshot(ctx context.Context, m *monitor.Monitor) (exitCode int) {
	var unhealthy atomic.Bool

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGHUP)
	defer stop()

	targets := m.Targets()
	results := make([]monitor.CycleResult, len(targets))

	wg := &sync.WaitGroup{}
	for i, t := range targets {
		i, t := i, t
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := m.RunCycle(ctx, t, time.Now())
			if err != nil || !r.Status.IsUp() {
				unhealthy.Store(true)
			}
			results[i] = r
		}()
	}
	wg.Wait()

	enc := json.NewEncoder(cmd.OutStream)
	for _, r := range results {
		if r.Outcome.Slug != "" {
			enc.Encode(r.Outcome)
		}
	}

	if unhealthy.Load() {
		return 1
	} else {
		return 0
	}
}
