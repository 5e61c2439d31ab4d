package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moniflow/moniflow/internal/config"
	"github.com/moniflow/moniflow/internal/gateway"
	"github.com/moniflow/moniflow/pkg/observability"
)

func main() {
	server := config.LoadServer("8000")
	observability.InitLogger("gateway", server.LogLevel, "json")
	logger := observability.Logger
	observability.InitMetrics("moniflow")

	gwCfg, err := config.LoadGateway()
	if err != nil {
		slog.Error("invalid gateway configuration", "error", err)
		os.Exit(1)
	}

	verifier := gateway.NewVerifier(gwCfg.SecretKey, gwCfg.Algorithm)
	proxy := gateway.NewProxy(
		gateway.DefaultRoutes(),
		gateway.DefaultPublicPrefixes(),
		verifier,
		gwCfg.RequestTimeout,
		logger,
	)
	defer proxy.Close()

	srv := &http.Server{
		Addr:         ":" + server.Port,
		Handler:      proxy.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("starting gateway", "port", server.Port, "timeout", gwCfg.RequestTimeout)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gateway...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("gateway exited")
}
