package main

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/uptrack/uptrack/internal/monitor"
)

// RunSummary prints the summary of the recorded history without probing.
func (cmd *UptrackCommand) RunSummary(ctx context.Context, m *monitor.Monitor) (exitCode int) {
	sum, err := m.Summarize(ctx, time.Now())
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to summarize")
		return 1
	}

	enc := json.NewEncoder(cmd.OutStream)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to print summary")
		return 1
	}

	return 0
}
