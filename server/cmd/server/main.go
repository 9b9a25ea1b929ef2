package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dishpatch/dishpatch/server/internal/config"
	"github.com/dishpatch/dishpatch/server/internal/gateway"
	"github.com/dishpatch/dishpatch/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("dishpatch-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"ping_interval", cfg.Server.Heartbeat.PingInterval,
		"pong_timeout", cfg.Server.Heartbeat.PongTimeout,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Current holds the live config; the watcher swaps it on reload. The
	// gateway reads auth through it per request, so secret rotation needs
	// no restart.
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	hub := ws.New(hubOptions(cfg))

	go func() {
		err := config.Watch(ctx, *configPath, func(c *config.Config) {
			current.Store(c)
			hub.UpdateOptions(hubOptions(c))
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	notifyHandler := gateway.New(hub, func() config.AuthConfig {
		return current.Load().Server.Auth
	})

	httpMux := http.NewServeMux()
	httpMux.Handle("/ws", hub)
	httpMux.Handle("/internal/notify", notifyHandler)
	httpMux.Handle("/metrics", promhttp.Handler())
	httpMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok") //nolint:errcheck
	})

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("dishpatch-server shutting down")
	hub.CloseAll()
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}

// hubOptions maps the heartbeat/buffer config onto hub options.
func hubOptions(cfg *config.Config) ws.Options {
	return ws.Options{
		PingInterval: cfg.Server.Heartbeat.PingInterval,
		PongTimeout:  cfg.Server.Heartbeat.PongTimeout,
		SendBuffer:   cfg.Server.SendBuffer,
	}
}
