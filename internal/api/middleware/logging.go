package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Logger logs every request with its normalized route and the caller
// identity advertised at the gateway boundary. The raw path stays in a
// separate field so room and peer ids don't explode the route
// cardinality downstream.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				evt := logger.Info().
					Str("method", r.Method).
					Str("route", normalizePath(r.URL.Path)).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("latency", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context()))
				if caller := r.Header.Get(HeaderUser); caller != "" {
					evt = evt.Str("caller", caller)
				}
				evt.Msg("request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
