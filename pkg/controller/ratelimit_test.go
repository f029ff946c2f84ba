package controller_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"duesbook/pkg/controller"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/members", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestWithRateLimit_BurstThenReject(t *testing.T) {
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	h := controller.WithRateLimitClock(1, 2, false, func() time.Time { return now })(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)

	rec := hit(h, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))

	var body controller.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "RATE_LIMITED", body.Code)

	// other clients have their own bucket
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.2").Code)

	// tokens refill over time
	now = now.Add(time.Second)
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
}

func TestWithRateLimit_Disabled(t *testing.T) {
	h := controller.WithRateLimit(0, 0, false)(okHandler())
	for range 20 {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	}
}

func hitForwarded(h http.Handler, remote, forwarded string) int {
	req := httptest.NewRequest(http.MethodPost, "/v1/credentials/verify", nil)
	req.RemoteAddr = remote + ":1234"
	req.Header.Set("X-Forwarded-For", forwarded)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec.Code
}

func TestWithRateLimit_IgnoresForwardedForByDefault(t *testing.T) {
	h := controller.WithRateLimit(0.001, 1, false)(okHandler())

	require.Equal(t, http.StatusOK, hitForwarded(h, "10.0.0.1", "198.51.100.0"))
	for i := 1; i <= 50; i++ {
		forwarded := fmt.Sprintf("198.51.100.%d", i)
		require.Equal(t, http.StatusTooManyRequests, hitForwarded(h, "10.0.0.1", forwarded), forwarded)
	}
}

func TestWithRateLimit_TrustedProxyKeysOnForwardedFor(t *testing.T) {
	h := controller.WithRateLimit(0.001, 1, true)(okHandler())

	// every client behind the proxy shares its address but gets its own bucket
	require.Equal(t, http.StatusOK, hitForwarded(h, "10.0.0.254", "198.51.100.1"))
	require.Equal(t, http.StatusOK, hitForwarded(h, "10.0.0.254", "198.51.100.2"))
	require.Equal(t, http.StatusTooManyRequests, hitForwarded(h, "10.0.0.254", "198.51.100.1"))
}
