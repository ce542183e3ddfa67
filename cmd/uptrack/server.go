package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/uptrack/uptrack/internal/endpoint"
	"github.com/uptrack/uptrack/internal/meta"
	"github.com/uptrack/uptrack/internal/monitor"
	"github.com/uptrack/uptrack/internal/schedule"
)

// makeJob makes a cron job that runs a cycle of the target.
// Errors are already logged and recorded by the monitor.
func makeJob(ctx context.Context, m *monitor.Monitor, t monitor.Target) cron.Job {
	return cron.FuncJob(func() {
		m.RunCycle(ctx, t, time.Now())
	})
}

func reportStartLog(log zerolog.Logger, listen string, targets []monitor.Target, schedules []schedule.Schedule) {
	sites := zerolog.Arr()
	for i, t := range targets {
		sites.Dict(zerolog.Dict().
			Str("slug", t.Slug).
			Str("schedule", schedules[i].String()).
			Str("target", t.Prober.Target().Redacted()))
	}

	log.Info().
		Str("listen", listen).
		Str("version", meta.String()).
		Array("sites", sites).
		Msg("start uptrack server")
}

func (cmd *UptrackCommand) RunServer(ctx context.Context, m *monitor.Monitor, schedules []schedule.Schedule, gatherer prometheus.Gatherer) (exitCode int) {
	log := zerolog.Ctx(ctx)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cmd.Config.Listen)
	if err != nil {
		log.Error().Err(err).Str("listen", cmd.Config.Listen).Msg("failed to listen")
		return 1
	}

	targets := m.Targets()
	reportStartLog(*log, ln.Addr().String(), targets, schedules)

	scheduler := cron.New(cron.WithLocation(cmd.Config.Location()))

	wg := &sync.WaitGroup{}
	for i, t := range targets {
		job := makeJob(ctx, m, t)

		if schedules[i].RunOnStart() {
			wg.Add(1)
			go func() {
				job.Run()
				wg.Done()
			}()
		}

		scheduler.Schedule(schedules[i], job)
	}

	scheduler.Start()

	srv := &http.Server{
		Handler:           endpoint.New(m, gatherer, *log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(2)
	go func() {
		<-ctx.Done()

		go func() {
			<-scheduler.Stop().Done()
			wg.Done()
		}()

		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to shutdown server")
		}
		wg.Done()
	}()

	if err := srv.Serve(ln); err != http.ErrServerClosed {
		log.Error().Err(err).Msg("failed to serve")
		exitCode = 1
	}
	stop()

	wg.Wait()

	log.Info().Msg("stop uptrack server")

	return exitCode
}
