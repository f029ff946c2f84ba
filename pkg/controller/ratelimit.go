package controller

import (
	"net/http"
	"sync"
	"time"

	"duesbook/pkg/logger"
	"duesbook/pkg/serrors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters keeps one token bucket per client IP and drops buckets that
// have been idle for limiterIdleTTL.
type clientLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

func (c *clientLimiters) allow(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) > time.Minute {
		for k, v := range c.clients {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(c.clients, k)
			}
		}
		c.lastSweep = now
	}

	cl, ok := c.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[ip] = cl
	}
	cl.lastSeen = now

	return cl.limiter.AllowN(now, 1)
}

// WithRateLimit returns a middleware allowing each client perSecond requests
// per second with the given burst. Excess requests get 429. A non-positive
// perSecond disables limiting.
//
// Clients are keyed by the connection's remote address. Forwarding headers
// are only honored when trustProxy is set, i.e. when every request arrives
// through a proxy that overwrites them.
func WithRateLimit(perSecond float64, burst int, trustProxy bool) func(http.Handler) http.Handler {
	return withRateLimit(perSecond, burst, trustProxy, time.Now)
}

func withRateLimit(
	perSecond float64,
	burst int,
	trustProxy bool,
	now func() time.Time,
) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}

	limiters := &clientLimiters{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     now,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := RemoteIP(r)
			if trustProxy {
				ip = ClientIP(r)
			}
			if !limiters.allow(ip) {
				logger.Debug(r.Context(), "rate limited", zap.String("client_ip", ip))
				w.Header().Set("Retry-After", "1")
				WriteError(w, r, http.StatusTooManyRequests, serrors.ErrRateLimited.Error(), "too many requests")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
