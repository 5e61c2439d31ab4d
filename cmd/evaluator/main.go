package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/moniflow/moniflow/internal/adapter/driven/mongo"
	redisadapter "github.com/moniflow/moniflow/internal/adapter/driven/redis"
	"github.com/moniflow/moniflow/internal/config"
	"github.com/moniflow/moniflow/internal/evaluator"
	"github.com/moniflow/moniflow/internal/notify"
	"github.com/moniflow/moniflow/pkg/observability"
)

func main() {
	server := config.LoadServer("8005")
	observability.InitLogger("evaluator", server.LogLevel, "json")
	logger := observability.Logger
	observability.InitMetrics("moniflow")

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

	cache := redisadapter.NewHotCache(redisClient, logger)
	state := redisadapter.NewAlertStateStore(redisClient)
	notifier := notify.NewLogNotifier(logger)

	engine := evaluator.NewEngine(ruleRepo, historyRepo, cache, state, notifier, logger)

	// The evaluator serves no API; the listener only exposes Prometheus
	// metrics and a health probe.
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})

	srv := &http.Server{
		Addr:         ":" + server.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.Info("starting evaluator metrics listener", "port", server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	runCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		engine.Run(runCtx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down evaluator...")
	stop()
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("evaluator exited")
}
