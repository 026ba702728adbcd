package httpmiddleware

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Recoverer catches panics in handlers, logs them, and returns a 500
// instead of crashing the process. Every service's router mounts this
// above its routes.
func Recoverer(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().
						Interface("panic", rec).
						Str("path", r.URL.Path).
						Msg("panic recovered in http handler")
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
