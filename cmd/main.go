// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	cneonline "github.com/ItsLJcool/cne-online"
	"github.com/ItsLJcool/cne-online/pkg/accounts"
	"github.com/ItsLJcool/cne-online/pkg/breaker"
	"github.com/ItsLJcool/cne-online/pkg/broker"
	"github.com/ItsLJcool/cne-online/pkg/dispatch"
	"github.com/ItsLJcool/cne-online/pkg/health"
	"github.com/ItsLJcool/cne-online/pkg/metrics"
	"github.com/ItsLJcool/cne-online/pkg/rooms"
	"github.com/ItsLJcool/cne-online/pkg/server"
)

const (
	wsPrefix  = "CNE_WS_"
	opsPrefix = "CNE_OPS_"

	redisURLEnv    = "CNE_REDIS_URL"
	redisPrefixEnv = "CNE_REDIS_PREFIX"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	logger := slog.New(logHandler)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file found, using environment variables")
	}

	m := metrics.New("cne")
	checker := health.NewChecker(10 * time.Second)

	// User store: Redis when configured, in-memory otherwise. Either way
	// the endpoint sees it through a circuit breaker.
	store, redisClient, err := newStore(logger)
	if err != nil {
		logger.Error("failed to set up user store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checker.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	cb := breaker.New(breaker.Config{
		MaxFailures:      5,
		ResetTimeout:     10 * time.Second,
		SuccessThreshold: 2,
		OnStateChange: func(from, to breaker.State) {
			logger.Warn("user store breaker state change",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	guarded := accounts.NewBreakerStore(store, cb)

	// Endpoint registration order is dispatch order: accounts first so it
	// claims /user, /login and /register before rooms sees them.
	b := broker.New(logger)
	registry := rooms.NewRegistry(b, logger, m)

	d := dispatch.New(logger, m)
	if err := d.Register(accounts.NewEndpoint(guarded, logger, m)); err != nil {
		logger.Error("failed to register accounts endpoint", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := d.Register(rooms.NewEndpoint(registry, logger)); err != nil {
		logger.Error("failed to register rooms endpoint", slog.String("error", err.Error()))
		os.Exit(1)
	}
	d.Seal()

	// WebSocket listener
	wsCfg, err := cneonline.NewConfig(env.Options{Prefix: wsPrefix})
	if err != nil {
		logger.Error("failed to load server config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if wsCfg.Port == "" {
		logger.Error("server port not configured", slog.String("env", wsPrefix+"PORT"))
		os.Exit(1)
	}

	srv := server.New(server.Config{
		Address:         wsCfg.Address(),
		Path:            wsCfg.Path,
		TLSConfig:       wsCfg.TLSConfig,
		ShutdownTimeout: wsCfg.ShutdownTimeout,
		RateCapacity:    wsCfg.RateCapacity,
		RateRefill:      wsCfg.RateRefill,
		Logger:          logger,
	}, d, m)

	g.Go(func() error {
		return srv.Listen(ctx)
	})

	// Ops listener: health probes and metrics
	if err := startOpsServer(g, ctx, checker, m, logger); err != nil {
		logger.Warn("ops server not started", slog.String("error", err.Error()))
	}

	// Signal handler
	g.Go(func() error {
		return StopSignalHandler(ctx, cancel, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("cne-online service terminated with error: %s", err))
	} else {
		logger.Info("cne-online service stopped")
	}
}

// newStore builds the account store from the environment. It returns the
// Redis client too, when one was opened, so main can close it and register
// its health check.
func newStore(logger *slog.Logger) (accounts.Store, *redis.Client, error) {
	redisURL := os.Getenv(redisURLEnv)
	if redisURL == "" {
		logger.Info("no Redis configured, using in-memory user store")
		return accounts.NewMemoryStore(), nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid %s: %w", redisURLEnv, err)
	}
	client := redis.NewClient(opts)

	logger.Info("using Redis user store", slog.String("addr", opts.Addr))
	return accounts.NewRedisStore(client, os.Getenv(redisPrefixEnv)), client, nil
}

func startOpsServer(g *errgroup.Group, ctx context.Context, checker *health.Checker, m *metrics.Metrics, logger *slog.Logger) error {
	cfg, err := cneonline.NewConfig(env.Options{Prefix: opsPrefix})
	if err != nil {
		return err
	}

	// Skip if port is not configured
	if cfg.Port == "" {
		return fmt.Errorf("port not configured")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", health.LivenessHandler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())
	mux.HandleFunc("/health", checker.HTTPHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	opsSrv := &http.Server{
		Addr:      cfg.Address(),
		Handler:   mux,
		TLSConfig: cfg.TLSConfig,
	}

	g.Go(func() error {
		errCh := make(chan error, 1)
		go func() {
			if cfg.TLSConfig != nil {
				errCh <- opsSrv.ListenAndServeTLS("", "")
				return
			}
			errCh <- opsSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return opsSrv.Shutdown(shutdownCtx)
	})

	logger.Info("ops server started", slog.String("address", cfg.Address()))
	return nil
}

func StopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-c:
		logger.Info("received shutdown signal")
		cancel()
		return nil
	case <-ctx.Done():
		return nil
	}
}
