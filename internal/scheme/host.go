package scheme

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrPortMissing = errors.New("port number is required")
)

// splitHostPort extracts the host and the port from a hostname, a host:port pair, or a URL.
// The port argument overrides the port in raw if it is not 0.
func splitHostPort(raw string, port int) (host, portStr string, err error) {
	raw = strings.TrimSpace(raw)

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", ErrInvalidURL
		}
		host, portStr = u.Hostname(), u.Port()
	} else if h, p, err := net.SplitHostPort(raw); err == nil {
		host, portStr = h, p
	} else {
		host = strings.Trim(raw, "[]")
	}

	if port != 0 {
		portStr = strconv.Itoa(port)
	}

	if host == "" {
		return "", "", ErrMissingHost
	}

	return strings.ToLower(host), portStr, nil
}
