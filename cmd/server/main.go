package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"reda-store/internal/ai"
	"reda-store/internal/auth"
	"reda-store/internal/blob"
	"reda-store/internal/catalog"
	"reda-store/internal/config"
	"reda-store/internal/database"
	"reda-store/internal/events"
	"reda-store/internal/handlers"
	"reda-store/internal/logging"
	"reda-store/internal/reports"
	"reda-store/internal/sales"
	"reda-store/internal/storefront"
	"reda-store/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.WithContext(context.Background()).Info("No .env file found, using environment")
	}

	cfg := config.Load()
	logging.Setup(cfg.Logger, cfg.Telemetry.ServiceName)
	if cfg.Server.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Server.AppEnv)
	if err != nil {
		logging.Fatalf("Failed to initialize telemetry: %v", err)
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logging.Fatalf("Database unavailable: %v", err)
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if cfg.Auth.JWTSecret == "" {
		logging.Warnf(ctx, "JWT_SECRET is not set, using the development secret")
	}
	authSvc := auth.NewService(db, tokens, cfg.Auth.RegisterCode)
	if cfg.Auth.SeedEmail != "" {
		created, err := authSvc.Seed(ctx, cfg.Auth.SeedName, cfg.Auth.SeedEmail, cfg.Auth.SeedPassword)
		if err != nil {
			logging.Fatalf("Failed to seed owner account: %v", err)
		}
		if created {
			logging.Infof(ctx, "Seeded owner account %s", cfg.Auth.SeedEmail)
		}
	}

	loc := cfg.Store.Location()
	opts := []sales.Option{}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logging.Fatalf("Redis unreachable at %s: %v", cfg.Redis.Addr, err)
		}
		opts = append(opts, sales.WithSequencer(sales.NewRedisSequencer(rdb)))
		logging.Infof(ctx, "Bill numbers issued from redis at %s", cfg.Redis.Addr)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logging.Infof(ctx, "Publishing sale events to kafka topic %s", cfg.Kafka.Topic)
	}
	opts = append(opts, sales.WithPublisher(publisher))

	catalogSvc := catalog.NewService(db)
	aggregator := reports.NewAggregator(db, loc)
	agent := ai.NewAgent(cfg.AI.GeminiAPIKey, cfg.AI.Model, ai.NewTools(catalogSvc, aggregator), loc)
	if !agent.Enabled() {
		logging.Warnf(ctx, "GEMINI_API_KEY is not set, the assistant is disabled")
	}

	router := handlers.NewRouter(handlers.Deps{
		Config:     cfg,
		DB:         db,
		Auth:       authSvc,
		Catalog:    catalogSvc,
		Sales:      sales.NewService(db, cfg.Store.BillPrefix, loc, opts...),
		Reports:    aggregator,
		Storefront: storefront.NewService(db, cfg.Store.WhatsAppNumber, cfg.Server.BaseURL),
		Images:     blob.NewGormStore(db),
		Agent:      agent,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Infof(ctx, "Server starting on %s", cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Infof(context.Background(), "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Errorf(shutdownCtx, "HTTP shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		logging.Errorf(shutdownCtx, "Closing event publisher: %v", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logging.Errorf(shutdownCtx, "Closing redis: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logging.Errorf(shutdownCtx, "Telemetry shutdown: %v", err)
	}
}
