package auth

import (
	"net"
	"net/http"
)

// ClientIP returns the request's remote host without the port. RealIP
// middleware has already rewritten RemoteAddr from proxy headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
