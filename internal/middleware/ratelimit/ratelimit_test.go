package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, rpm int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: rpm})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiter_AllowWithinWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "clients are independent")

	*now = now.Add(20 * time.Second)
	assert.Equal(t, 40, rl.RetryAfter("1.2.3.4"))

	*now = now.Add(40 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"), "window resets after a minute")
	assert.Equal(t, int64(1), rl.GetMetrics().Rejected)
}

func TestLimiter_RejectedRequestsDoNotExtendWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 1)

	require.True(t, rl.Allow("a"))
	for i := 0; i < 5; i++ {
		*now = now.Add(10 * time.Second)
		assert.False(t, rl.Allow("a"))
	}
	*now = now.Add(10 * time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 10)
	rl.Allow("old")
	*now = now.Add(11 * time.Minute)
	rl.Allow("fresh")

	rl.cleanupStaleEntries()
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(r *http.Request) string { return "client" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/expense", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/expense", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
