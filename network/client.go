// Package network provides the HTTP client shared by the catalog client and the HLS engine.
package network

import (
	"net/http"
	"time"

	"github.com/dramaplay/dramaplay/constant"
)

// Client is the shared client. Segment downloads can be long, so there is no overall timeout;
// callers bound requests with a context instead.
var Client = NewClient(0)

// NewClient returns a client with a tuned transport that stamps the application User-Agent.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgent{next: newTransport()},
	}
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}

type userAgent struct {
	next http.RoundTripper
}

func (u *userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", constant.UserAgent)
	}
	return u.next.RoundTrip(req)
}
