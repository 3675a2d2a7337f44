package mw

import (
	"net"
	"net/http"

	"github.com/readmark/readmark/internal/logger"
)

// LoopbackOnly rejects every request not originating from localhost.
// The daemon holds credentials and reading history for one user; even
// if it is accidentally bound to a non-loopback interface, nothing on
// the LAN gets through.
func LoopbackOnly(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			ip := net.ParseIP(host)
			if ip == nil || !ip.IsLoopback() {
				log.Warn("rejected non-loopback request",
					logger.String("remote_ip", r.RemoteAddr),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
