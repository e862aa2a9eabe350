package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	c "github.com/MayankPiparde04/kaaryakram-cart-service/internal/cache"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/events"
	carthttp "github.com/MayankPiparde04/kaaryakram-cart-service/internal/http"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/identity"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/poller"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/promo"
	"github.com/MayankPiparde04/kaaryakram-cart-service/internal/repository"
	s "github.com/MayankPiparde04/kaaryakram-cart-service/internal/service"
	"github.com/MayankPiparde04/kaaryakram-cart-service/pkg/config"
	"github.com/MayankPiparde04/kaaryakram-cart-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg, v, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.New(logger.Options{
		Service: "cart-service",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
	})

	// Set up MongoDB connection
	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)

	store := repository.NewMongoStore(mongoDB)
	if err := store.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	slog.Info("connected to MongoDB", "uri", cfg.MongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	slog.Info("connected to Redis", "addr", cfg.RedisAddr)

	var emitter events.Emitter = events.NopEmitter{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaEmitter := events.NewKafkaEmitter(cfg.RepairTopic, cfg.KafkaBrokers...)
		defer kafkaEmitter.Close()
		emitter = kafkaEmitter
	}

	cache := c.NewRedisCache(redisClient)
	ledger := promo.NewLedger(v)
	service := s.NewCartService(store, cache, ledger, emitter)
	resolver := identity.NewResolver(cfg.JWTSecret)
	cartHandler := carthttp.NewCartHandler(service, cfg.RequestTimeout)

	// Clear carts when checkout completes
	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if len(cfg.KafkaBrokers) > 0 {
		checkoutPoller := poller.New(service, cfg.CheckoutTopic, cfg.KafkaBrokers...)
		defer checkoutPoller.Close()
		go checkoutPoller.Run(pollerCtx)
	}

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(carthttp.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(carthttp.AuthMiddleware(resolver))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product}", cartHandler.RemoveItem)
			r.Post("/promo", cartHandler.ApplyPromo)
			r.Delete("/promo", cartHandler.RemovePromo)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("cart service listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down cart service")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	slog.Info("cart service stopped")
}
