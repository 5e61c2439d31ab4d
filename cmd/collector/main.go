package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/moniflow/moniflow/internal/adapter/driven/redis"
	"github.com/moniflow/moniflow/internal/adapter/driven/influx"
	collectorhttp "github.com/moniflow/moniflow/internal/adapter/driving/http"
	"github.com/moniflow/moniflow/internal/config"
	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/internal/ingest"
	"github.com/moniflow/moniflow/pkg/observability"
)

func main() {
	server := config.LoadServer("8001")
	observability.InitLogger("collector", server.LogLevel, "json")
	logger := observability.Logger
	observability.InitMetrics("moniflow")

	tracingCfg := config.LoadTracing()
	if err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "collector",
		ServiceVersion: "1.0.0",
		Environment:    tracingCfg.Environment,
		OTLPEndpoint:   tracingCfg.Endpoint,
		Enabled:        tracingCfg.Enabled,
	}); err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer observability.ShutdownTracing(context.Background())

	// Stores
	influxCfg := config.LoadInflux()
	store := influx.NewStore(influxCfg.URL, influxCfg.Token, influxCfg.Org, influxCfg.Bucket, logger)
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		slog.Error("failed to ping influxdb", "error", err)
		os.Exit(1)
	}
	slog.Info("influxdb connected", "url", influxCfg.URL)

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

	// Ingest pipeline
	ingestCfg := config.LoadIngest()
	metricQueue := ingest.NewQueue[domain.Sample]("metrics", ingestCfg.QueueCapacity)
	logQueue := ingest.NewQueue[domain.LogEvent]("logs", ingestCfg.QueueCapacity)

	metricFlusher := ingest.NewFlusher(metricQueue, store.WriteSamples,
		ingestCfg.MetricBatchSize, ingestCfg.MetricFlushInterval, logger)
	logFlusher := ingest.NewFlusher(logQueue, store.WriteLogs,
		ingestCfg.LogBatchSize, ingestCfg.LogFlushInterval, logger)

	flusherCtx, stopFlushers := context.WithCancel(context.Background())
	var flushers sync.WaitGroup
	flushers.Add(2)
	go func() {
		defer flushers.Done()
		metricFlusher.Run(flusherCtx)
	}()
	go func() {
		defer flushers.Done()
		logFlusher.Run(flusherCtx)
	}()

	// Router
	handler := collectorhttp.NewCollectorHandler(metricQueue, logQueue, cache, store, logger)

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
		slog.Info("starting collector", "port", server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down collector...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Flushers drain what is left before the process exits.
	stopFlushers()
	flushers.Wait()

	slog.Info("collector exited")
}
