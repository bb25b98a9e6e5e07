package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matcha-app/matcha/internal/api"
	"github.com/matcha-app/matcha/internal/middleware"
)

// routerConfig collects everything the HTTP surface needs. main builds it
// from live infrastructure; tests build it from in-memory repositories.
type routerConfig struct {
	Logger      *slog.Logger
	Registry    *prometheus.Registry
	HTTPMetrics *middleware.Metrics

	Discovery *api.DiscoveryHandlers
	Relations *api.RelationHandlers
	Health    *api.HealthHandlers

	SearchLimitStore middleware.RateLimitStore
	SearchLimit      middleware.RateLimitConfig

	CORSAllowedOrigins []string
}

// newRouter builds the full route table and middleware chain.
func newRouter(rc routerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", rc.Health.Health)
	mux.HandleFunc("GET /ready", rc.Health.Ready)
	if rc.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(rc.Registry, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET /v1/discovery", rc.Discovery.GetDiscovery)
	mux.HandleFunc("GET /v1/discovery/random", rc.Discovery.GetRandom)
	mux.HandleFunc("GET /v1/discovery/filter", rc.Discovery.GetFiltered)

	// Search carries its own tighter rate limit
	searchLimiter := middleware.RateLimiter(rc.SearchLimitStore, rc.SearchLimit, middleware.UserKeyFunc())
	mux.Handle("GET /v1/discovery/search", searchLimiter(http.HandlerFunc(rc.Discovery.Search)))

	mux.HandleFunc("POST /v1/users/{id}/like", rc.Relations.Like)
	mux.HandleFunc("DELETE /v1/users/{id}/like", rc.Relations.Unlike)
	mux.HandleFunc("POST /v1/users/{id}/pass", rc.Relations.Pass)
	mux.HandleFunc("DELETE /v1/users/{id}/pass", rc.Relations.Unpass)
	mux.HandleFunc("POST /v1/users/{id}/block", rc.Relations.Block)
	mux.HandleFunc("DELETE /v1/users/{id}/block", rc.Relations.Unblock)
	mux.HandleFunc("POST /v1/users/{id}/view", rc.Relations.RecordView)
	mux.HandleFunc("GET /v1/users/{id}/fame", rc.Relations.GetFame)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			errCtx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, errCtx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"matcha-discovery","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: RequestID -> UserIdentity -> Logging -> HTTPMetrics -> CORS.
	// UserIdentity sits above Logging so user_id reaches request logs, and
	// above the per-route rate limiters so UserKeyFunc sees the user.
	var handler http.Handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   rc.CORSAllowedOrigins,
		AllowedHeaders:   []string{"Content-Type", "X-User-ID", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})(mux)
	return middleware.RequestID(middleware.UserIdentity(middleware.Logging(rc.Logger)(middleware.HTTPMetrics(rc.HTTPMetrics)(handler))))
}
