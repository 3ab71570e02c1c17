package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest returns the client IP from the request. Uses r.RemoteAddr only
// (no proxy headers); counters keyed by spoofable headers would let a client
// dodge its own limits.
func FromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip := strings.TrimSpace(r.RemoteAddr)
		if ip == "" {
			return "unknown"
		}
		return ip
	}
	return strings.TrimSpace(host)
}
