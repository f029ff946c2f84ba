package controller

import (
	"net/http"
	"net/http/pprof"
)

// PprofPrefix is the path PprofHandler expects to be mounted at.
const PprofPrefix = "/debug/pprof/"

// PprofHandler serves the net/http/pprof endpoints. Mount it at PprofPrefix;
// named runtime profiles (heap, goroutine, ...) are served by the index.
func PprofHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(PprofPrefix, pprof.Index)
	mux.HandleFunc(PprofPrefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc(PprofPrefix+"profile", pprof.Profile)
	mux.HandleFunc(PprofPrefix+"symbol", pprof.Symbol)
	mux.HandleFunc(PprofPrefix+"trace", pprof.Trace)

	return mux
}
