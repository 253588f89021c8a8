package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SupportChat/middleware"
	"SupportChat/pkg/config"
	"SupportChat/pkg/events"
	"SupportChat/pkg/idempotency"
	"SupportChat/pkg/realtime"
	"SupportChat/pkg/relay"
	"SupportChat/pkg/store"
	"SupportChat/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type idempotencyStore interface {
	idempotency.Store
	io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	cfg.LogSummary()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	s := store.New(db, time.Duration(cfg.StoreTimeoutSeconds)*time.Second)

	registry := realtime.NewRegistry(logger)

	idemTTL := time.Duration(cfg.IdempotencyTTLSeconds) * time.Second
	var idem idempotencyStore
	if cfg.RedisURL != "" {
		rs, err := idempotency.NewRedis(cfg.RedisURL, idemTTL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		idem = rs
	} else {
		idem = idempotency.NewMemory(cfg.IdempotencyMaxItems, idemTTL)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		publisher, err = events.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			log.Fatalf("failed to connect rabbitmq: %v", err)
		}
	}

	rl := relay.New(s, registry,
		relay.WithLogger(logger),
		relay.WithIdempotency(idem),
		relay.WithPublisher(publisher),
		relay.WithRejectClosed(cfg.RejectClosedSends),
	)

	limiter := middleware.NewRateLimiter(time.Duration(cfg.RateLimitWindowSeconds)*time.Second, cfg.RateLimitCapacity)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Store:       s,
		Relay:       rl,
		Registry:    registry,
		Publisher:   publisher,
		RateLimiter: limiter,
		JWTSecret:   cfg.JWTSecret,
		SendBuffer:  cfg.SocketSendBuffer,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pruneLimiter(ctx, limiter, time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// sockets are hijacked and not tracked by Shutdown
	registry.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("close publisher", "error", err)
	}
	if err := idem.Close(); err != nil {
		logger.Warn("close idempotency store", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if !cfg.IsProduction {
		opts.Level = slog.LevelDebug
	}
	if cfg.IsProduction || cfg.IsStaging {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func pruneLimiter(ctx context.Context, rl *middleware.RateLimiter, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.Prune()
		}
	}
}
