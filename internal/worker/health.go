// Package worker exposes the worker process's health endpoints. The
// worker has no gin surface; a plain mux is enough.
package worker

import (
	"encoding/json"
	"net/http"
)

func HealthHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

// MetricsHandler reports in-process job counters as JSON.
func MetricsHandler(snapshot func() any) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/metricsz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot())
	})

	return mux
}
