// Package http holds the liveness/readiness handlers shared by every
// cmd/*/main.go, adapted from the original gRPC-era health.go's
// shape (HealthHandler + ReadyHandler) but generalized past a single
// hardcoded database+Kafka pair: each process supplies its own named
// set of dependency pingers.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HealthHandler returns a liveness check (always OK): the process is up.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// Pinger is a named dependency check (database, bus) a process wires
// into ReadyHandler.
type Pinger struct {
	Name string
	Ping func(ctx context.Context) error
}

// ReadyHandler returns a readiness check running every pinger with a
// shared 2-second timeout; any failure reports 503 with the per-check results.
func ReadyHandler(logger zerolog.Logger, pingers ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := make(map[string]string, len(pingers))
		ready := true
		for _, p := range pingers {
			if err := p.Ping(ctx); err != nil {
				logger.Error().Err(err).Str("check", p.Name).Msg("readiness check failed")
				checks[p.Name] = "failed"
				ready = false
				continue
			}
			checks[p.Name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "unavailable", "checks": checks})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ready", "checks": checks})
	}
}
