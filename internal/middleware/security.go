package middleware

import (
	"net"
	"net/http"
	"strings"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerReferrerPolicy          = "Referrer-Policy"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// ContentSecurityPolicy builds the policy for the API and the client shell.
// extraSources (origins, or 'sha256-...' hashes for an inline import map) are
// allowed for scripts, styles, fonts and fetches on top of 'self'.
func ContentSecurityPolicy(extraSources []string) string {
	extra := ""
	if len(extraSources) > 0 {
		extra = " " + strings.Join(extraSources, " ")
	}
	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self'" + extra,
		"style-src 'self' 'unsafe-inline'" + extra,
		"font-src 'self'" + extra,
		"img-src 'self' data: blob:",
		"connect-src 'self' ws: wss:" + extra,
	}, "; ")
}

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(cspExtraSources []string) func(http.Handler) http.Handler {
	csp := ContentSecurityPolicy(cspExtraSources)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headerXContentTypeOptions, "nosniff")
			w.Header().Set(headerXFrameOptions, "DENY")
			w.Header().Set(headerReferrerPolicy, "strict-origin-when-cross-origin")
			w.Header().Set(headerContentSecurityPolicy, csp)
			w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
			next.ServeHTTP(w, r)
		})
	}
}

// HostCheck returns 403 when r.Host does not match allowedHost.
// allowedHost is a bare hostname; an empty value disables the check.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ProductionSecurity returns the production chain:
// SecurityHeaders → HostCheck → global rate limit → write rate limit.
func ProductionSecurity(allowedHost string, cspExtraSources []string, global, writes *RateLimiter) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders(cspExtraSources),
		HostCheck(allowedHost),
		global.Middleware,
		writes.WritesOnly,
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
