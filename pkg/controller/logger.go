package controller

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"duesbook/pkg/logger"
	"duesbook/pkg/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

const maxRequestIDLength = 128

type requestIDKey struct{}

// RequestID returns the request ID stored by WithLogger, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)

	return id
}

// responseRecorder remembers what the downstream handler wrote.
type responseRecorder struct {
	http.ResponseWriter

	status int
	bytes  int
}

func (rec *responseRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n

	return n, err
}

// ClientIP returns the originating client address: the first valid entry of
// X-Forwarded-For, then X-Real-IP, then the connection's remote host. The
// headers are caller-controlled unless a trusted proxy sets them.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}

	return RemoteIP(r)
}

// RemoteIP returns the host of the connection's remote address.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// inboundRequestID accepts a caller-supplied ID only when it is short and
// printable ASCII.
func inboundRequestID(r *http.Request) (string, bool) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" || len(id) > maxRequestIDLength {
		return "", false
	}
	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7e {
			return "", false
		}
	}

	return id, true
}

// WithLogger is a middleware that attaches a request ID and a request-scoped
// logger to the context, echoes the ID in the response, observes the
// request latency and writes one access log entry per request.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := inboundRequestID(r)
		if !ok {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = logger.WithFields(ctx, zap.String("request_id", id))
		r = r.WithContext(ctx)

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := routePattern(r)
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(elapsed.Seconds())

		logger.Info(ctx, "Access log",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("url", r.URL.String()),
			zap.Int("status_code", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("latency", elapsed),
			zap.String("client_ip", ClientIP(r)),
			zap.String("user_agent", r.UserAgent()),
			zap.String("referer", r.Referer()),
		)
	})
}

// routePattern keeps the route label bounded: raw paths carry ids.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return "unmatched"
}
