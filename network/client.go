// Package network provides a pre-configured HTTP client shared by playlist fetching and media resolution.
package network

import (
	"net/http"
	"time"
)

// Client is the singleton HTTP client shared across the application for efficient resource utilization.
// It carries no overall timeout; callers bound individual requests through contexts,
// since media downloads legitimately outlive any fixed client deadline.
var Client = &http.Client{
	Transport: newTransport(),
}

// newTransport initializes a tuned http.Transport with pool and timeout parameters
// suitable for repeated fetches against a small set of playlist and media hosts.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}
