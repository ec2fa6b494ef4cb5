package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tcgsearch_api/config"
	"tcgsearch_api/internal/tcg/app/web"
	"tcgsearch_api/internal/tcg/app/web/handlers"
	"tcgsearch_api/internal/tcg/business/currency"
	"tcgsearch_api/internal/tcg/business/merge"
	"tcgsearch_api/internal/tcg/business/normalize"
	"tcgsearch_api/internal/tcg/pkg/breaker"
	"tcgsearch_api/internal/tcg/pkg/clients"
	"tcgsearch_api/internal/tcg/storage/repositories"
	"tcgsearch_api/metrics"
	"tcgsearch_api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type SearchServer struct {
	cfg    *config.AppConfig
	log    logger.Logger
	server *http.Server
}

// NewSearchServer wires the search pipeline on top of an open database.
func NewSearchServer(cfg *config.AppConfig, db *sql.DB, log logger.Logger) *SearchServer {
	log = log.WithPrefix("[SearchServer]")

	converter := currency.NewConverter(cfg.Currency.Rate)
	normalizer := normalize.NewNormalizer(converter, cfg.Currency.Code)

	cb := breaker.New(cfg.Breaker.Threshold, cfg.Breaker.Cooldown,
		breaker.WithStateHook(func(open bool) {
			metrics.SetBreakerOpen(open)
			if open {
				log.Log("upstream breaker opened, suspending upstream calls for %v", cfg.Breaker.Cooldown)
			} else {
				log.Log("upstream breaker closed")
			}
		}))

	client := clients.NewSearchClient(clients.Options{
		BaseURL:           cfg.Upstream.BaseURL,
		SearchPath:        cfg.Upstream.SearchPath,
		UserAgent:         cfg.Upstream.UserAgent,
		Referer:           cfg.Upstream.Referer,
		Origin:            cfg.Upstream.Origin,
		Timeout:           cfg.Upstream.Timeout,
		CacheTTL:          cfg.Upstream.CacheTTL,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		BatchSize:         cfg.Upstream.BatchSize,
		BatchPause:        cfg.Upstream.BatchPause,
	}, cb, normalizer, log)

	inventory := repositories.NewInventoryRepository(db)
	stats := &metrics.SearchMetrics{}
	merger := merge.NewMerger(inventory, client, cfg.Currency.Code, log,
		merge.WithPriceRange(cfg.Upstream.PriceRange),
		merge.WithStats(stats))

	router := web.SetupRoutes(web.Handlers{
		Search:   handlers.NewSearchHandler(merger, cfg.Server.SearchTimeout, log),
		Identity: handlers.NewIdentityHandler(client),
		Status:   handlers.NewStatusHandler(cb, stats),
	}, cfg.Auth.JWTSecret, log)

	return &SearchServer{
		cfg: cfg,
		log: log,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *SearchServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Log("Listening on %s", s.cfg.Server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.cfg.Server.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Log("Shutting down")
	return s.server.Shutdown(shutdownCtx)
}
