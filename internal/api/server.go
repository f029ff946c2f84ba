// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware of the duesbook service.
package api

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"duesbook/internal/api/handler/v1handler"
	"duesbook/internal/config"
	"duesbook/pkg/controller"
	"duesbook/pkg/logger"
	"duesbook/pkg/serrors"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
	"go.uber.org/zap"
)

// v1Spec contains the embedded OpenAPI specification for version 1 of the API.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// healthTimeout bounds the readiness probe's database round trip.
const healthTimeout = 2 * time.Second

// Options holds configuration for the HTTP server and its dependencies.
// It is typically created from a config.Config via NewOptions.
// All durations are used to configure server timeouts, and zero values
// should be considered as using the defaults provided by net/http where applicable.
type Options struct {
	// V1 configures the v1 routes.
	V1 v1handler.Options

	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout is the global timeout applied via http.TimeoutHandler for handling requests.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// AllowedOrigins lists the CORS origins; "*" allows any.
	AllowedOrigins []string
	// EnablePprof mounts the profiling endpoints.
	EnablePprof bool
}

// NewOptions constructs an Options value from the provided application configuration.
// It maps HTTP server-related settings from config.Config to the Options used by the API server.
func NewOptions(cfg *config.Config) Options {
	return Options{
		V1: v1handler.NewOptions(cfg),

		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		EnablePprof:       cfg.HTTP.EnablePprof,
	}
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes to.
type Deps struct {
	v1handler.Deps

	// Health is checked by /healthz.
	Health Pinger
}

// NewRouter returns the root handler with every route mounted:
// - Prometheus metrics endpoint (MetricsPath)
// - Embedded OpenAPI v1 spec and Swagger UI
// - v1 API routes
// - /healthz readiness probe
// - pprof endpoints when enabled
// Every request passes through the logging and CORS middlewares.
func NewRouter(deps Deps, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(controller.WithLogger)
	r.Use(controller.WithCORS(opts.AllowedOrigins))

	// prometheus metrics server
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.Handle(metricsPath, promhttp.Handler())

	// v1 specs file
	r.Get("/specs/v1.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	// v1 api swagger playground
	r.Handle("/v1/docs/*", v5emb.New(
		"Duesbook",
		"/specs/v1.yaml",
		"/v1/docs/",
	))
	// v1 api
	r.Mount("/v1", v1handler.New(deps.Deps).Routes(opts.V1))

	r.Get("/healthz", healthz(deps.Health))

	// pprof
	if opts.EnablePprof {
		r.Handle(controller.PprofPrefix+"*", controller.PprofHandler())
	}

	return r
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
// It applies a request timeout on top of NewRouter.
func NewServer(deps Deps, opts Options) *http.Server {
	handler := NewRouter(deps, opts)
	if opts.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, opts.RequestTimeout, `{"code":"UNAVAILABLE","message":"request timed out"}`)
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}
}

func healthz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()

			if err := p.Ping(ctx); err != nil {
				logger.Warn(r.Context(), "health check failed", zap.Error(err))
				controller.WriteError(w, r, http.StatusServiceUnavailable,
					serrors.ErrUnavailable.Error(), "database is unreachable")

				return
			}
		}

		controller.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
