// Package metrics holds process-wide Prometheus collectors and wires the
// OpenTelemetry meter provider to the Prometheus registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Namespace prefixes every metric exported by the service.
const Namespace = "duesbook"

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// HTTPRequestDuration observes handled requests by method, route pattern and status.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint: gochecknoglobals
	Namespace: Namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "Duration of HTTP requests.",
	Buckets:   DefaultBuckets,
}, []string{"method", "route", "status"})

// NewMeterProvider creates an OpenTelemetry meter provider whose instruments
// are exported through reg and installs it as the global provider, so meters
// obtained with otel.Meter report to the Prometheus endpoint.
func NewMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	otel.SetMeterProvider(mp)

	return mp, nil
}
