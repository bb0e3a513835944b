package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func requestFrom(method, ip string) *http.Request {
	req := httptest.NewRequest(method, "/api/names", nil)
	req.RemoteAddr = ip + ":51234"
	return req
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	l := NewRateLimiter(GlobalRate, 2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	h := l.Middleware(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom(http.MethodGet, "10.0.0.1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom(http.MethodGet, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"too many requests, please slow down"}`, rec.Body.String())

	// Other clients have their own bucket.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom(http.MethodGet, "10.0.0.2"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Tokens refill over time.
	fixed = fixed.Add(time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom(http.MethodGet, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWritesOnlyIgnoresReads(t *testing.T) {
	l := NewRateLimiter(WriteRate, 1)
	h := l.WritesOnly(okHandler)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom(http.MethodGet, "10.0.0.1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom(http.MethodPost, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom(http.MethodPost, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSweepForgetsIdleClients(t *testing.T) {
	l := NewRateLimiter(GlobalRate, GlobalBurst)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = start.Add(20 * time.Minute)
	l.Allow("10.0.0.2")
	require.Equal(t, 2, l.Len())

	now = start.Add(limiterTTL + time.Minute)
	l.Sweep()
	assert.Equal(t, 1, l.Len())
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(nil)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, ContentSecurityPolicy(nil), rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func cspDirective(policy, name string) string {
	for _, d := range strings.Split(policy, ";") {
		d = strings.TrimSpace(d)
		if strings.HasPrefix(d, name+" ") {
			return d
		}
	}
	return ""
}

func TestContentSecurityPolicyAllowsClientAssets(t *testing.T) {
	policy := ContentSecurityPolicy([]string{"https://threejs.org", "https://cdn.jsdelivr.net", "https://unpkg.com"})

	// The client fetches its typeface JSON and loads three.js modules from these origins.
	assert.Contains(t, cspDirective(policy, "connect-src"), "https://threejs.org")
	assert.Contains(t, cspDirective(policy, "connect-src"), "wss:")
	assert.Contains(t, cspDirective(policy, "script-src"), "https://cdn.jsdelivr.net")
	assert.Contains(t, cspDirective(policy, "script-src"), "https://unpkg.com")
	assert.Equal(t, "default-src 'self'", cspDirective(policy, "default-src"))
}

func TestSecurityHeadersUsesConfiguredSources(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders([]string{"https://threejs.org"})(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, cspDirective(csp, "connect-src"), "https://threejs.org")
	assert.Contains(t, cspDirective(csp, "font-src"), "https://threejs.org")
}

func TestContentSecurityPolicyWithoutExtras(t *testing.T) {
	policy := ContentSecurityPolicy(nil)
	assert.Equal(t, "script-src 'self'", cspDirective(policy, "script-src"))
	assert.NotContains(t, policy, "threejs.org")
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("names.example.com")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "NAMES.example.com:443"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req.Host = "evil.example.com"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	HostCheck("")(okHandler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSWildcard(t *testing.T) {
	h := CORS([]string{"*"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/names", nil)
	req.Header.Set("Origin", "https://client.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSExplicitOrigins(t *testing.T) {
	h := CORS([]string{"https://names.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/names", nil)
	req.Header.Set("Origin", "https://names.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://names.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req.Header.Set("Origin", "https://other.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := chimw.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/health"`)
}
