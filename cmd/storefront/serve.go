package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/authz"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cache"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/review"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/sequence"
)

func bootstrap() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, logger, nil
}

func runServe(parent context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(cfg.Database.DSN, logger); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
	}

	m := metrics.New()

	// --- cache ---
	var listingCache catalog.Cache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.TTL)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer rc.Close()
		listingCache = rc
		logger.Info("listing cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}
	listingCache = m.InstrumentCache(listingCache)

	// --- AMQP ---
	var publisher order.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		conn, err := events.Dial(cfg.AMQP.URL)
		if err != nil {
			return fmt.Errorf("amqp connect: %w", err)
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn, sequence.NewRepository(pool), events.PublisherOptions{Producer: cfg.AMQP.Producer})
		if err != nil {
			return fmt.Errorf("amqp publisher: %w", err)
		}
		defer pub.Close()
		publisher = pub
	} else {
		logger.Warn("amqp url not set, order events are not published")
	}

	// --- auth ---
	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("jwt secret not set, using a random one; tokens will not survive a restart")
	}
	enforcer, err := authz.New()
	if err != nil {
		return err
	}

	authSvc := auth.NewService(auth.NewPostgresRepository(pool), auth.NewTokens(secret, cfg.Auth.TokenTTL), logger)
	catalogSvc := catalog.NewService(catalog.NewPostgresRepository(pool), listingCache, logger)
	reviewSvc := review.NewService(review.NewPostgresRepository(pool), enforcer, catalogSvc, logger)
	orderSvc := order.NewService(order.NewPostgresRepository(pool), publisher, catalogSvc, logger)

	// --- HTTP ---
	h := httpapi.NewHandler(httpapi.Deps{
		Auth:    authSvc,
		Catalog: catalogSvc,
		Reviews: reviewSvc,
		Orders:  orderSvc,
		Authz:   enforcer,
		Logger:  logger,
	})
	r := httpapi.NewRouter(h, httpapi.RouterOptions{
		AllowOrigins: cfg.AllowedOrigins(),
		Logger:       logger,
		Metrics:      m,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http listening", "addr", cfg.HTTP.Addr, "environment", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal", "signal", sig.String())
	case runErr = <-errCh:
		logger.Error("http server failed", "err", runErr)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	cancel()

	logger.Info("shutdown complete")
	return runErr
}

func randomSecret() ([]byte, error) {
	buf := make([]byte, config.MinSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	return []byte(hex.EncodeToString(buf)), nil
}
