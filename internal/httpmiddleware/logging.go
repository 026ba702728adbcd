// Package httpmiddleware holds the chi middleware shared by every HTTP
// service: request logging (adapted from the teacher's gRPC logging
// interceptor), panic recovery, and CORS for the gateway.
package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger logs every HTTP request with method, path, status, and
// duration, the same fields the teacher's gRPC interceptor recorded.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			logEvent := logger.Info()
			if ww.Status() >= 500 {
				logEvent = logger.Error()
			}

			logEvent.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration_ms", duration).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request completed")
		})
	}
}
