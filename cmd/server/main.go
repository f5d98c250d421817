package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/veto-backend/internal/catalog"
	"github.com/DoyleJ11/veto-backend/internal/config"
	"github.com/DoyleJ11/veto-backend/internal/httpapi"
	"github.com/DoyleJ11/veto-backend/internal/hub"
	"github.com/DoyleJ11/veto-backend/internal/logger"
	"github.com/DoyleJ11/veto-backend/internal/ratelimit"
	"github.com/DoyleJ11/veto-backend/internal/store"
	"github.com/DoyleJ11/veto-backend/internal/veto"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(db) }()
	if cfg.AutoMigrate {
		if err := store.Migrate(db); err != nil {
			return err
		}
		log.Info("database migrated", zap.String("driver", cfg.DBDriver))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The hub outlives ctx so in-flight operations can finish during shutdown.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	h := hub.NewHub(hubCtx, log)

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	// Build the router with every service injected
	handler := httpapi.SetupRoutes(httpapi.Deps{
		Veto:        veto.NewService(store.NewSeriesStore(db, cfg.SlayerMode), h, log),
		Catalog:     catalog.NewService(store.NewCatalogStore(db), log),
		Hub:         h,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// Stopping the hub closes every live websocket stream.
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		<-h.Done()
		return err
	})
	return g.Wait()
}
