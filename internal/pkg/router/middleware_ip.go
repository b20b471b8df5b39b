package router

import (
	"net"
	"net/http"
	"strings"

	"github.com/shandysiswandi/contactgate/internal/pkg/config"
)

// middlewareIP rewrites RemoteAddr to the bare client IP. Forwarding headers
// are honoured only when app.server.trust_proxy is set, since the per-client
// rate limit is keyed on this value.
func middlewareIP(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			trust := cfg != nil && cfg.GetBool("app.server.trust_proxy")
			if rip := realIP(r, trust); rip != "" {
				r.RemoteAddr = rip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func realIP(r *http.Request, trustHeaders bool) string {
	if trustHeaders {
		var ip string
		if tcip := r.Header.Get("True-Client-IP"); tcip != "" {
			ip = tcip
		} else if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
			ip = xrip
		} else if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ip, _, _ = strings.Cut(xff, ",")
		}

		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return ""
}
