package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/httpapi"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/internal/operations"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log, err := logger.NewLogger(logger.LogConfig{Output: "stderr", Component: "web"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	svc, err := operations.Build(cfg, log, operations.BuildOptions{
		Progress: func(stage string, step, total int) {
			log.Debug("%s %d/%d", stage, step, total)
		},
	})
	if err != nil {
		log.Fatal("Failed to build services: %v", err)
	}
	defer svc.Close()

	handler := httpapi.NewHandler(svc.Pipeline, svc.Store, svc.Exporter, cfg, log)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s (mode=%s)", cfg.Server.Addr, cfg.Mode)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Graceful shutdown failed: %v", err)
			_ = srv.Close()
		}
	}
}
