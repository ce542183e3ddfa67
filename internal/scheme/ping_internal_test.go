package scheme

import (
	"context"
	"testing"
	"time"
)

func TestResolveIPAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Network string
		Host    string
		V4      bool
	}{
		{"ip", "127.0.0.1", true},
		{"ip4", "127.0.0.1", true},
		{"ip6", "::1", false},
	}

	for _, tt := range tests {
		addr, err := resolveIPAddr(context.Background(), tt.Network, tt.Host)
		if err != nil {
			t.Errorf("%s %s: failed to resolve: %s", tt.Network, tt.Host, err)
			continue
		}
		if (addr.IP.To4() != nil) != tt.V4 {
			t.Errorf("%s %s: unexpected address: %s", tt.Network, tt.Host, addr)
		}
	}
}

func TestResolveIPAddr_cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stime := time.Now()
	_, err := resolveIPAddr(ctx, "ip", "uptrack-no-such-host.invalid")
	if err == nil {
		t.Fatalf("expected error but got nil")
	}
	if d := time.Since(stime); d > time.Second {
		t.Errorf("lookup must stop with the context but took %s", d)
	}
}
