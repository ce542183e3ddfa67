package scheme

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/macrat/go-parallel-pinger"
	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

var (
	ErrFailedToPreparePing = errors.New("failed to setup ping service")
	ErrPacketLost          = errors.New("echo reply did not come back")
)

// pingPrivileged reads UPTRACK_PING_PRIVILEGED.
// It returns nil if the environment variable does not specify it.
func pingPrivileged() *bool {
	pri := strings.ToLower(os.Getenv("UPTRACK_PING_PRIVILEGED"))
	if pri == "1" || pri == "true" || pri == "yes" || pri == "on" {
		p := true
		return &p
	} else if pri == "0" || pri == "false" || pri == "no" || pri == "off" {
		p := false
		return &p
	}
	return nil
}

type startStoper interface {
	Start() error
	Stop()
}

// sharedResource starts the resource on the first Get, and stops it on the last Release.
type sharedResource[T startStoper] struct {
	sync.Mutex

	count int

	resource T
}

func newSharedResource[T startStoper](resource T) *sharedResource[T] {
	return &sharedResource[T]{
		resource: resource,
	}
}

func (sr *sharedResource[T]) Get() (resource T, err error) {
	sr.Lock()
	defer sr.Unlock()

	if sr.count == 0 {
		err = sr.resource.Start()
		if err != nil {
			return
		}
	}

	sr.count++

	return sr.resource, nil
}

func (sr *sharedResource[T]) Release() {
	sr.Lock()
	defer sr.Unlock()

	if sr.count > 0 {
		sr.count--

		if sr.count == 0 {
			sr.resource.Stop()
		}
	}
}

type simplePinger struct {
	v4   *pinger.Pinger
	v6   *pinger.Pinger
	stop context.CancelFunc
}

func (p *simplePinger) Start() error {
	p.v4 = pinger.NewIPv4()
	p.v6 = pinger.NewIPv6()

	if privileged := pingPrivileged(); privileged != nil {
		p.v4.SetPrivileged(*privileged)
		p.v6.SetPrivileged(*privileged)
	}

	ctx, stop := context.WithCancel(context.Background())
	p.stop = stop

	if err := p.startPingers(ctx); err != nil {
		p.Stop()
		return err
	}

	return nil
}

func (p *simplePinger) startPingers(ctx context.Context) error {
	if err := p.v4.Start(ctx); err == nil {
		return p.v6.Start(ctx)
	}

	p.v4.SetPrivileged(!pinger.DEFAULT_PRIVILEGED)
	p.v6.SetPrivileged(!pinger.DEFAULT_PRIVILEGED)

	if err := p.v4.Start(ctx); err != nil {
		return err
	}
	return p.v6.Start(ctx)
}

func (p *simplePinger) Stop() {
	p.v4 = nil
	p.v6 = nil
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
}

var (
	sharedPinger = newSharedResource(&simplePinger{})
)

// PingProbe is a Prober that sends an ICMP echo request.
type PingProbe struct {
	target *url.URL
}

func NewPingProbe(check, raw string) (PingProbe, error) {
	host, _, err := splitHostPort(raw, 0)
	if err != nil {
		return PingProbe{}, err
	}

	if _, err := sharedPinger.Get(); err != nil {
		return PingProbe{}, uterr.New(ErrFailedToPreparePing, err, ErrFailedToPreparePing.Error())
	}
	sharedPinger.Release()

	return PingProbe{&url.URL{Scheme: check, Opaque: host}}, nil
}

func (p PingProbe) Target() *url.URL {
	return p.target
}

func (p PingProbe) proto() string {
	switch p.target.Scheme {
	case "ping4":
		return "ip4"
	case "ping6":
		return "ip6"
	default:
		return "ip"
	}
}

// resolveIPAddr looks up the first address of host in network, that is "ip", "ip4", or "ip6".
// The lookup stops when ctx is done.
func resolveIPAddr(ctx context.Context, network, host string) (*net.IPAddr, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, network, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.AddrError{Err: "no suitable address found", Addr: host}
	}
	return &net.IPAddr{IP: ips[0]}, nil
}

// Sample sends one echo request.
// It holds a reference of the shared pinger only while the round is running.
func (p PingProbe) Sample(ctx context.Context) (Sample, error) {
	target, err := resolveIPAddr(ctx, p.proto(), p.target.Opaque)
	if err != nil {
		return Sample{}, err
	}

	ps, err := sharedPinger.Get()
	if err != nil {
		return Sample{}, uterr.New(api.ErrProbeAttempt, err, ErrFailedToPreparePing.Error())
	}
	defer sharedPinger.Release()

	ping := ps.v6
	if target.IP.To4() != nil {
		ping = ps.v4
	}

	result, err := ping.Ping(ctx, target, 1, time.Second)
	if err != nil {
		return Sample{}, err
	}
	if result.Recv == 0 {
		return Sample{}, ErrPacketLost
	}

	return Sample{Latency: result.AvgRTT}, nil
}
