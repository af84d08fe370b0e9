package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type httpRecorder interface {
	ObserveHTTP(method, route string, status int, took time.Duration)
}

// Metrics records the duration and status of each request under its chi
// route pattern, so path parameters do not explode label cardinality.
func Metrics(rec httpRecorder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			rec.ObserveHTTP(r.Method, route, sw.status, time.Since(start))
		})
	}
}
