package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/moniflow/moniflow/internal/adapter/driven/mongo"
	redisadapter "github.com/moniflow/moniflow/internal/adapter/driven/redis"
	alerthttp "github.com/moniflow/moniflow/internal/adapter/driving/http"
	"github.com/moniflow/moniflow/internal/config"
	"github.com/moniflow/moniflow/internal/core/service"
	"github.com/moniflow/moniflow/pkg/observability"
)

func main() {
	server := config.LoadServer("8003")
	observability.InitLogger("alert_service", server.LogLevel, "json")
	logger := observability.Logger
	observability.InitMetrics("moniflow")

	tracingCfg := config.LoadTracing()
	if err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "alert_service",
		ServiceVersion: "1.0.0",
		Environment:    tracingCfg.Environment,
		OTLPEndpoint:   tracingCfg.Endpoint,
		Enabled:        tracingCfg.Enabled,
	}); err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer observability.ShutdownTracing(context.Background())

	// Mongo
	mongoCfg := config.LoadMongo()
	mongoClient, err := mongodriver.Connect(context.Background(),
		mongooptions.Client().ApplyURI(mongoCfg.URI))
	if err != nil {
		slog.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Disconnect(context.Background())

	if err := mongoClient.Ping(context.Background(), nil); err != nil {
		slog.Error("failed to ping mongodb", "error", err)
		os.Exit(1)
	}
	slog.Info("mongodb connected", "db", mongoCfg.DBName)

	db := mongoClient.Database(mongoCfg.DBName)
	ruleRepo := mongoadapter.NewRuleRepository(db)
	historyRepo := mongoadapter.NewHistoryRepository(db)
	if err := historyRepo.EnsureIndexes(context.Background()); err != nil {
		slog.Error("failed to create history indexes", "error", err)
		os.Exit(1)
	}

	// Redis
	redisCfg := config.LoadRedis()
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		slog.Error("failed to ping redis", "error", err)
		os.Exit(1)
	}
	slog.Info("redis connected", "addr", redisCfg.Addr)

	cache := redisadapter.NewHotCache(redisClient, logger)
	ruleService := service.NewRuleService(ruleRepo)

	// Router
	handler := alerthttp.NewAlertHandler(ruleService, cache, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(observability.HTTPMiddleware)

	r.Handle("/internal/metrics", observability.Handler())
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:         ":" + server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("starting alert service", "port", server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down alert service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("alert service exited")
}
