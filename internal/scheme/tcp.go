package scheme

import (
	"context"
	"net"
	"net/url"
	"time"
)

// TCPProbe is a Prober that checks a TCP port accepts connections.
type TCPProbe struct {
	target *url.URL
}

func NewTCPProbe(raw string, port int) (TCPProbe, error) {
	host, p, err := splitHostPort(raw, port)
	if err != nil {
		return TCPProbe{}, err
	}
	if p == "" {
		return TCPProbe{}, ErrPortMissing
	}

	return TCPProbe{&url.URL{Scheme: "tcp", Host: net.JoinHostPort(host, p)}}, nil
}

func (p TCPProbe) Target() *url.URL {
	return p.target
}

func (p TCPProbe) Sample(ctx context.Context) (Sample, error) {
	var dialer net.Dialer

	st := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", p.target.Host)
	d := time.Since(st)

	if err != nil {
		return Sample{}, err
	}
	conn.Close()

	return Sample{Latency: d}, nil
}
