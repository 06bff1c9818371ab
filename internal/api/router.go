package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CORSOrigins []string
	// TrustForwardedIP takes the client address from X-Forwarded-For /
	// X-Real-IP. Only enable behind a proxy that sets them.
	TrustForwardedIP bool
	UsageLimit       int
	UsageWindow      time.Duration
}

func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.UsageLimit <= 0 {
		cfg.UsageLimit = 5
	}
	if cfg.UsageWindow <= 0 {
		cfg.UsageWindow = time.Minute
	}

	r := chi.NewRouter()

	r.Use(requestContext)
	if cfg.TrustForwardedIP {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	r.Get("/ping", PingHandler)
	r.Get("/health", h.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(corsHandler(cfg.CORSOrigins, "POST", "OPTIONS"))
		r.Options("/recommend", optionsHandler)
		r.Post("/recommend", h.RecommendHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(corsHandler(cfg.CORSOrigins, "GET", "POST", "DELETE", "OPTIONS"))

		for _, path := range []string{"/sessions", "/sessions/{id}", "/sessions/{id}/more", "/search-usage/{userId}"} {
			r.Options(path, optionsHandler)
		}

		r.Post("/sessions", h.StartSessionHandler)
		r.Get("/sessions/{id}", h.GetSessionHandler)
		r.Post("/sessions/{id}/more", h.LoadMoreHandler)

		r.Route("/users/{userId}/watched", func(r chi.Router) {
			r.Options("/", optionsHandler)
			r.Options("/{tmdbId}", optionsHandler)
			r.Get("/", h.ListWatchedHandler)
			r.Post("/", h.AddWatchedHandler)
			r.Delete("/{tmdbId}", h.RemoveWatchedHandler)
		})

		keyFunc := httprate.KeyByIP
		if cfg.TrustForwardedIP {
			keyFunc = httprate.KeyByRealIP
		}
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(cfg.UsageLimit, cfg.UsageWindow,
				httprate.WithKeyFuncs(keyFunc),
				httprate.WithLimitHandler(usageLimitedHandler),
			))
			r.Get("/search-usage/{userId}", h.GetUsageHandler)
			r.Post("/search-usage/{userId}", h.IncrementUsageHandler)
		})
	})

	return r
}

func corsHandler(origins []string, methods ...string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: methods,
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
}
