package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dishpatch/dishpatch/orderapi/internal/api"
	"github.com/dishpatch/dishpatch/orderapi/internal/config"
	"github.com/dishpatch/dishpatch/orderapi/internal/orders"
	"github.com/dishpatch/dishpatch/pkg/notify"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("dishpatch-orderapi starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.OrderAPI.HTTPPort,
		"gateway_url", cfg.OrderAPI.Gateway.URL,
		"gateway_timeout", cfg.OrderAPI.Gateway.Timeout,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	notifier := notify.New(cfg.OrderAPI.Gateway.URL, notify.Options{
		Header:  cfg.OrderAPI.Gateway.Header,
		Key:     cfg.OrderAPI.Gateway.Key(),
		Timeout: cfg.OrderAPI.Gateway.Timeout,
	})
	svc := orders.NewService(orders.NewStore(), notifier)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.OrderAPI.HTTPPort),
		Handler: api.New(svc),
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.OrderAPI.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("dishpatch-orderapi shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
