package scheme

import (
	"context"
	"net"
	"net/url"
	"time"
)

var udpPayload = []byte("ping")

// UDPProbe is a Prober that sends a datagram and waits for any reply.
type UDPProbe struct {
	target *url.URL
}

func NewUDPProbe(raw string, port int) (UDPProbe, error) {
	host, p, err := splitHostPort(raw, port)
	if err != nil {
		return UDPProbe{}, err
	}
	if p == "" {
		return UDPProbe{}, ErrPortMissing
	}

	return UDPProbe{&url.URL{Scheme: "udp", Host: net.JoinHostPort(host, p)}}, nil
}

func (p UDPProbe) Target() *url.URL {
	return p.target
}

func (p UDPProbe) Sample(ctx context.Context) (Sample, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "udp", p.target.Host)
	if err != nil {
		return Sample{}, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	st := time.Now()

	if _, err := conn.Write(udpPayload); err != nil {
		return Sample{}, err
	}

	buf := make([]byte, 1500)
	if _, err := conn.Read(buf); err != nil {
		if ctx.Err() != nil {
			return Sample{}, ctx.Err()
		}
		return Sample{}, err
	}

	return Sample{Latency: time.Since(st)}, nil
}
