package scheme

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

var (
	ErrUnsupportedCheck = errors.New("unsupported check type")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrMissingHost      = errors.New("missing target host")
)

// Sample is the result of a single successful sample round.
type Sample struct {
	Latency time.Duration

	// Code is the status code that the target responded, or 0 for checks without status code.
	Code int

	// Body is the response body that read in the round, if the check has it.
	Body []byte
}

// Result is the aggregated result of all sample rounds of a probe.
type Result struct {
	// Latency is the arithmetic mean of the latencies of the successful rounds.
	Latency time.Duration

	// Code and Body are taken from the last successful round.
	Code int
	Body []byte

	Attempts  int
	Succeeded int
	Failures  int
}

// Prober sends a single sample request to a target.
//
// Each call of Sample must acquire and release its own transport resource, regardless of the result.
type Prober interface {
	// Target returns the target URL.
	// This URL should not change during lifetime of the instance.
	Target() *url.URL

	// Sample sends a request and waits for the response until ctx is done.
	Sample(ctx context.Context) (Sample, error)
}

// Probe runs up to attempts sample rounds one by one, and returns the averaged result.
//
// A failed or timed out round is discarded and the next round is tried.
// Probe fails with api.ErrAllAttemptsFailed only if no round succeeded.
// The whole probe takes at most attempts * timeout.
func Probe(ctx context.Context, p Prober, attempts int, timeout time.Duration) (Result, error) {
	if attempts < 1 {
		return Result{}, uterr.New(api.ErrInvalidProbeSettings, nil, "attempts must be 1 or more but got %d", attempts)
	}
	if timeout <= 0 {
		return Result{}, uterr.New(api.ErrInvalidProbeSettings, nil, "timeout must be positive but got %s", timeout)
	}

	log := zerolog.Ctx(ctx)
	target := p.Target().Redacted()

	res := Result{Attempts: attempts}

	var total time.Duration
	var lastErr error

	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		s, err := sampleOnce(ctx, p, timeout)
		if err != nil {
			res.Failures++
			lastErr = err
			log.Debug().Err(err).Str("target", target).Int("attempt", i).Msg("probe attempt discarded")
			continue
		}

		res.Succeeded++
		total += s.Latency
		res.Code = s.Code
		res.Body = s.Body
	}

	if res.Succeeded == 0 {
		return res, uterr.New(api.ErrAllAttemptsFailed, lastErr, "%s: all %d attempts failed", target, attempts)
	}

	res.Latency = total / time.Duration(res.Succeeded)

	return res, nil
}

// sampleOnce runs a round with its own deadline.
func sampleOnce(ctx context.Context, p Prober, timeout time.Duration) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s, err := p.Sample(ctx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return Sample{}, uterr.New(api.ErrProbeAttempt, err, "")
	}

	return s, nil
}

// Options is the check type specific settings of a site.
type Options struct {
	// Port overrides the port in the URL for tcp-ping and udp-ping.
	Port int

	Method       string
	Headers      []string
	Body         string
	MaxRedirects int
	Insecure     bool
}

// NewProber makes a Prober for the check type.
func NewProber(check, rawURL string, opts Options) (Prober, error) {
	switch check {
	case "", "http":
		return NewHTTPProbe(rawURL, opts)
	case "tcp-ping":
		return NewTCPProbe(rawURL, opts.Port)
	case "udp-ping":
		return NewUDPProbe(rawURL, opts.Port)
	case "ping", "ping4", "ping6":
		return NewPingProbe(check, rawURL)
	case "dummy":
		return NewDummyProbe(rawURL)
	default:
		return nil, ErrUnsupportedCheck
	}
}
