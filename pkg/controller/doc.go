// Package controller contains HTTP middlewares and helper handlers used by the API server.
//
// Provided middlewares:
//   - WithCORS: Adds CORS headers for allowed origins and handles OPTIONS preflight.
//   - WithLogger: Attaches a request-scoped logger and request ID, logs access info and records latency.
//   - WithRateLimit: Throttles requests per client address.
//
// Provided helpers:
//   - PprofHandler: Serves net/http/pprof under /debug/pprof/.
//   - WriteJSON, WriteError: JSON response helpers.
package controller
