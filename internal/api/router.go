package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/fixitpro/fixit-engine/internal/metrics"
)

// RouterConfig configures the HTTP routes
type RouterConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	MetricsEnabled bool
	MetricsPath    string
}

// NewRouter builds the chi router for the read API
func NewRouter(h *Handler, cfg RouterConfig, logger *logrus.Logger) http.Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// the WebSocket stream is long-lived and stays outside the timeout
	r.Get("/ws", h.HandleWebSocket)

	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

		r.Route("/api", func(r chi.Router) {
			r.Get("/picks", h.GetPicks)
			r.Get("/stats", h.GetStats)
			r.Get("/leagues/top", h.GetTopLeagues)
			r.Get("/matches", h.GetMatches)
			r.Get("/status", h.GetStatus)
			r.Post("/refresh", h.PostRefresh)
		})
	})

	return r
}

// requestLogger logs each request through logrus
func requestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	entry := logger.WithField("component", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			entry.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
				"request_id":  chimiddleware.GetReqID(r.Context()),
			}).Debug("Request served")
		})
	}
}
