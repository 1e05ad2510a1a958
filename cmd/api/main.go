package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	c "github.com/fjod/storefront/internal/cache"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/poller"
	"github.com/fjod/storefront/internal/publisher"
	"github.com/fjod/storefront/internal/repository"
	s "github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/fjod/storefront/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "storefront"

func main() {
	if err := run(); err != nil {
		slog.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

// run owns every resource, so deferred cleanup happens before main exits.
func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.LogLevel), serviceName)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName, cfg.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("set up tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(shutdownCtx); err != nil {
				log.Warn("tracer shutdown failed", "error", err)
			}
		}()
		log.Info("tracing enabled", "endpoint", cfg.OTLPEndpoint)
	}

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, repository.MongoConfig{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDBName,
		AppName:        serviceName,
		MaxPoolSize:    cfg.MongoMaxPoolSize,
		MinPoolSize:    cfg.MongoMinPoolSize,
		ConnectTimeout: cfg.MongoConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			log.Warn("mongo disconnect failed", "error", err)
		}
	}()
	log.Info("connected to MongoDB", "database", cfg.MongoDBName)

	if err := repository.RunMigrations(mongoDB, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	carts := repository.NewCartRepository(mongoDB)
	products := repository.NewProductRepository(mongoDB)
	orders := repository.NewOrderRepository(mongoDB)

	var cache c.CartCache = c.NopCache{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		cache = c.NewRedisCache(redisClient, c.Options{
			KeyPrefix: cfg.CacheKeyPrefix,
			TTL:       cfg.CartCacheTTL,
			Jitter:    cfg.CartCacheJitter,
		})
		log.Info("redis cache enabled", "addr", cfg.RedisAddr)
	}

	cartService := s.NewCartService(carts, products, cache)
	checkoutService := s.NewCheckoutService(carts, products, orders, cache)
	catalogService := s.NewCatalogService(products)
	orderService := s.NewOrderService(orders)

	router := h.NewRouter(
		h.RouterConfig{
			Prefix:         cfg.APIPrefix,
			JWTSecret:      []byte(cfg.JWTSecret),
			RequestTimeout: cfg.RequestTimeout,
			AllowedOrigins: cfg.AllowedOrigins,
		},
		h.NewCartHandler(cartService, cfg.RequestTimeout),
		h.NewOrdersHandler(checkoutService, orderService, cfg.RequestTimeout),
		h.NewProductHandler(catalogService, cfg.RequestTimeout),
	)

	var workers sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		outbox := publisher.NewOutboxPoller(orders, cfg.OutboxPollInterval, cfg.KafkaBrokers...)
		defer outbox.Close()
		reconciler := poller.NewCartReconciler(carts, cache, cfg.KafkaBrokers...)
		defer reconciler.Close()

		workers.Add(2)
		go func() {
			defer workers.Done()
			outbox.Run(ctx)
		}()
		go func() {
			defer workers.Done()
			reconciler.Run(ctx)
		}()
		log.Info("order outbox enabled", "brokers", cfg.KafkaBrokers)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("storefront starting", "port", cfg.HTTPPort, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Graceful shutdown
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		stop()
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	workers.Wait()

	log.Info("server exited")
	return runErr
}
