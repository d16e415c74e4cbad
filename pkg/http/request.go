package http

import (
	"net"
	"net/http"
	"strings"
)

// ClientKey derives the identifier used to bucket rate-limit counters.
// Priority: first entry of X-Forwarded-For (trimmed), then the transport
// peer address, then "unknown". The forwarded header must win over the
// peer address or every client behind a reverse proxy shares one bucket.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if i := strings.IndexByte(xff, ','); i >= 0 {
			first = xff[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if r.RemoteAddr != "" {
		// RemoteAddr is usually "ip:port"
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}
