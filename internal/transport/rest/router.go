package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/pms-backend/internal/config"
	"github.com/heartmarshall/pms-backend/internal/transport/middleware"
)

// metricsRecorder is the HTTP side of the metrics registry.
type metricsRecorder interface {
	ObserveHTTP(method, route string, status int, took time.Duration)
	Handler() http.Handler
}

// RouterDeps holds everything NewRouter mounts.
type RouterDeps struct {
	Log  *slog.Logger
	CORS config.CORSConfig
	// MaxBodyBytes caps request bodies; zero disables the limit.
	MaxBodyBytes int64
	Health       *HealthHandler
	ARI          *ARIHandler
	Metrics      metricsRecorder
}

// NewRouter builds the HTTP API:
//
//	GET  /live, /ready, /health, /metrics
//	POST /properties/{propertyID}/ari/bulk
//	POST /properties/{propertyID}/ari/events
//	GET  /properties/{propertyID}/ari/events
//	GET  /properties/{propertyID}/ari/events/{eventID}
//	POST /properties/{propertyID}/ari/events/{eventID}/undo
//	POST /properties/{propertyID}/ari/events/{eventID}/apply
//	GET  /properties/{propertyID}/ari/price
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.CORS(d.CORS))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/live", d.Health.Live)
	r.Get("/ready", d.Health.Ready)
	r.Get("/health", d.Health.Health)

	r.Route("/properties/{"+middleware.PropertyParam+"}/ari", func(r chi.Router) {
		r.Use(middleware.Property())
		if d.MaxBodyBytes > 0 {
			r.Use(limitBody(d.MaxBodyBytes))
		}

		r.Post("/bulk", d.ARI.ApplyBulk)
		r.Get("/price", d.ARI.ResolvePrice)

		r.Route("/events", func(r chi.Router) {
			r.Post("/", d.ARI.Ingest)
			r.Get("/", d.ARI.ListEvents)
			r.Get("/{"+EventIDParam+"}", d.ARI.GetEvent)
			r.Post("/{"+EventIDParam+"}/undo", d.ARI.Undo)
			r.Post("/{"+EventIDParam+"}/apply", d.ARI.ApplyPending)
		})
	})

	return r
}

func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
