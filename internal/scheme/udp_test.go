package scheme_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/uptrack/uptrack/internal/scheme"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

// runUDPServer starts a UDP server on localhost.
// It echoes every datagram back if echo is true, otherwise it reads and drops them.
func runUDPServer(t *testing.T, echo bool) string {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %s", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})

	go func() {
		buf := make([]byte, 1500)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			if echo {
				conn.WriteTo(buf[:n], addr)
			}
		}
	}()

	return conn.LocalAddr().String()
}

func TestUDPProbe(t *testing.T) {
	t.Parallel()

	p, err := scheme.NewUDPProbe(runUDPServer(t, true), 0)
	if err != nil {
		t.Fatalf("failed to create probe: %s", err)
	}

	res, err := scheme.Probe(context.Background(), p, 3, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.Succeeded != 3 {
		t.Errorf("expected all rounds succeeded but got %d", res.Succeeded)
	}
	if res.Latency <= 0 {
		t.Errorf("unexpected latency: %s", res.Latency)
	}
}

func TestUDPProbe_noReply(t *testing.T) {
	t.Parallel()

	p, err := scheme.NewUDPProbe(runUDPServer(t, false), 0)
	if err != nil {
		t.Fatalf("failed to create probe: %s", err)
	}

	st := time.Now()
	res, err := scheme.Probe(context.Background(), p, 2, 50*time.Millisecond)
	if !errors.Is(err, api.ErrAllAttemptsFailed) {
		t.Fatalf("expected all attempts failed but got %v", err)
	}
	if res.Failures != 2 {
		t.Errorf("expected 2 failures but got %d", res.Failures)
	}
	if d := time.Since(st); d > 2*time.Second {
		t.Errorf("probe took too long: %s", d)
	}
}
