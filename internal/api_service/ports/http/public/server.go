package public

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/langowen/exchange-rates/deploy/config"
	"github.com/langowen/exchange-rates/internal/api_service/metrics"
	mwLogger "github.com/langowen/exchange-rates/internal/api_service/ports/http/public/middleware/logger"
	mwMetrics "github.com/langowen/exchange-rates/internal/api_service/ports/http/public/middleware/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators behind the public API. Refresher,
// Metrics and Gatherer may be nil.
type Dependencies struct {
	Service    Service
	Cache      CacheManager
	Currencies Currencies
	Refresher  Refresher
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
}

type Server struct {
	Server *http.Server
	cfg    *config.Config
	deps   Dependencies
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
	}

	s.Server = &http.Server{
		Addr:         ":" + cfg.HTTPServer.Port,
		Handler:      s.Router(),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwLogger.New())
	r.Use(mwMetrics.New(s.deps.Metrics))
	r.Use(middleware.Recoverer)

	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/health", s.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/exchange/{from}", s.GetRate)
		r.Get("/exchange/{from}/all", s.GetAllRates)
		r.Get("/convert", s.Convert)

		r.Get("/currency", s.ListCurrencies)
		r.Post("/currency/refresh", s.RefreshCurrencies)

		r.Get("/cache/entries", s.CacheEntries)
		r.Delete("/cache/entries", s.ClearCache)
		r.Get("/cache/entries/{key}", s.CacheEntry)
		r.Delete("/cache/entries/{key}", s.DeleteCacheEntry)
		r.Get("/cache/keys", s.CacheKeys)
		r.Get("/cache/statistics", s.CacheStatistics)
		r.Get("/cache/details", s.CacheDetails)
	})

	return r
}

// StartServer serves until ctx is done. The returned channel is closed once
// the server has shut down.
func StartServer(ctx context.Context, cfg *config.Config, deps Dependencies) <-chan struct{} {
	server := NewServer(cfg, deps)

	doneChan := make(chan struct{})

	go func() {
		if err := server.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()

		timeout := cfg.HTTPServer.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to stop server", "error", err)
		}

		close(doneChan)
	}()

	return doneChan
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
