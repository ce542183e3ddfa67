package scheme

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	HTTPUserAgent = "uptrack health check"
)

const (
	HTTP_REDIRECT_MAX = 10

	// HTTP_BODY_MAX is the maximum bytes of response body that read for marker checks.
	HTTP_BODY_MAX = 1024 * 1024
)

var (
	ErrRedirectLoopDetected = errors.New("redirect loop detected")
)

func checkHTTPRedirect(max int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if max < 0 {
			return http.ErrUseLastResponse
		}
		if len(via) > max {
			return ErrRedirectLoopDetected
		}
		return nil
	}
}

// HTTPProbe is a Prober that sends an HTTP request.
// Any HTTP response is a successful sample; the status code is judged by the classifier.
type HTTPProbe struct {
	target *url.URL
	method string
	header http.Header
	body   string
	client *http.Client
}

func NewHTTPProbe(raw string, opts Options) (HTTPProbe, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return HTTPProbe{}, ErrInvalidURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return HTTPProbe{}, ErrInvalidURL
	}

	u.Host = strings.ToLower(u.Host)
	if u.Hostname() == "" {
		return HTTPProbe{}, ErrMissingHost
	}

	if u.Path == "" {
		u.Path = "/"
	}

	method := strings.ToUpper(opts.Method)
	switch method {
	case "":
		method = http.MethodGet
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions:
	default:
		return HTTPProbe{}, fmt.Errorf("HTTP %q method is not supported", method)
	}

	header := http.Header{
		"User-Agent": {HTTPUserAgent},
	}
	for _, h := range opts.Headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok {
			return HTTPProbe{}, fmt.Errorf("invalid header %q: expected \"Key: Value\"", h)
		}
		header.Add(strings.TrimSpace(k), strings.TrimSpace(v))
	}

	redirects := opts.MaxRedirects
	if redirects == 0 {
		redirects = HTTP_REDIRECT_MAX
	}

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: true,
	}
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return HTTPProbe{
		target: u,
		method: method,
		header: header,
		body:   opts.Body,
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: checkHTTPRedirect(redirects),
		},
	}, nil
}

func (p HTTPProbe) Target() *url.URL {
	return p.target
}

func (p HTTPProbe) Sample(ctx context.Context) (Sample, error) {
	var body io.Reader
	if p.body != "" {
		body = strings.NewReader(p.body)
	}

	req, err := http.NewRequestWithContext(ctx, p.method, p.target.String(), body)
	if err != nil {
		return Sample{}, err
	}
	req.Header = p.header.Clone()

	st := time.Now()

	resp, err := p.client.Do(req)
	if err != nil {
		return Sample{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, HTTP_BODY_MAX))
	d := time.Since(st)
	if err != nil {
		return Sample{}, err
	}

	return Sample{
		Latency: d,
		Code:    resp.StatusCode,
		Body:    b,
	}, nil
}
