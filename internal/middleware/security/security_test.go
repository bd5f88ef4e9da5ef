package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name   string
		remote string
		xff    string
		realIP string
		want   string
	}{
		{"direct client", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"untrusted peer cannot spoof", "203.0.113.7:5000", "1.1.1.1", "", "203.0.113.7"},
		{"trusted proxy", "10.0.0.1:5000", "198.51.100.2", "", "198.51.100.2"},
		{"rightmost untrusted hop", "10.0.0.1:5000", "6.6.6.6, 198.51.100.2, 10.0.0.5", "", "198.51.100.2"},
		{"all hops trusted", "127.0.0.1:5000", "10.0.0.9, 10.0.0.5", "", "10.0.0.9"},
		{"real ip fallback", "127.0.0.1:5000", "", "198.51.100.3", "198.51.100.3"},
		{"garbage forwarded", "127.0.0.1:5000", "not-an-ip", "", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(r))
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector(nil)
	require.Error(t, d.AddTrustedProxy("nope"))
	require.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:5000"
	r.Header.Set("X-Forwarded-For", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", d.ExtractClientIP(r))
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"normal api call", http.MethodGet, "/dashboard", "curl/8.0", false},
		{"path traversal", http.MethodGet, "/../etc/passwd", "", true},
		{"dotenv probe", http.MethodGet, "/.env", "", true},
		{"scanner agent", http.MethodGet, "/", "sqlmap/1.7", true},
		{"script in query", http.MethodGet, "/expenses?next=javascript:alert(1)", "", true},
		{"trace method", "TRACE", "/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			assert.Equal(t, tt.want, d.DetectSuspiciousRequest(r))
		})
	}
}

func TestDetectorMiddleware_BlocksTrace(t *testing.T) {
	d := NewDetector(nil)
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("TRACE", "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.git/config", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "suspicious paths are logged, not blocked")

	m := d.GetMetrics()
	assert.Equal(t, int64(2), m.SuspiciousRequests)
	assert.Equal(t, int64(1), m.BlockedRequests)
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
