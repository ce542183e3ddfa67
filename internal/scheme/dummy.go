package scheme

import (
	"context"
	"errors"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrDummyFailure = errors.New("dummy failure")
)

// DummyProbe is a Prober for testing and demonstration.
//
// The URL looks like "dummy:up?latency=10ms&code=200".
// The opaque is one of "up" (always succeeds), "failure" (always fails), or "random".
type DummyProbe struct {
	target  *url.URL
	random  bool
	fail    bool
	latency time.Duration
	code    int
}

func NewDummyProbe(raw string) (DummyProbe, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "dummy" {
		return DummyProbe{}, ErrInvalidURL
	}

	p := DummyProbe{target: &url.URL{Scheme: "dummy", Opaque: strings.ToLower(u.Opaque), Fragment: u.Fragment}}

	switch p.target.Opaque {
	case "", "up":
	case "failure":
		p.fail = true
	case "random":
		p.random = true
	default:
		return DummyProbe{}, errors.New("opaque must up, failure, or random")
	}

	query := url.Values{}

	if latency := u.Query().Get("latency"); latency != "" {
		d, err := time.ParseDuration(latency)
		if err != nil {
			return DummyProbe{}, err
		}
		p.latency = d
		query.Set("latency", d.String())
	}

	if code := u.Query().Get("code"); code != "" {
		c, err := strconv.Atoi(code)
		if err != nil {
			return DummyProbe{}, err
		}
		p.code = c
		query.Set("code", code)
	}

	p.target.RawQuery = query.Encode()

	return p, nil
}

func (p DummyProbe) Target() *url.URL {
	return p.target
}

func (p DummyProbe) Sample(ctx context.Context) (Sample, error) {
	latency := p.latency
	if p.random && latency == 0 {
		latency = time.Duration(rand.Intn(100)) * time.Millisecond
	}

	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return Sample{}, ctx.Err()
	}

	if p.fail || (p.random && rand.Intn(4) == 0) {
		return Sample{}, ErrDummyFailure
	}

	return Sample{Latency: latency, Code: p.code}, nil
}
