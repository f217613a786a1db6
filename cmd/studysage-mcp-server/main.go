package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/server"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// Initialize logger with default configuration
	log, err := logger.NewLogger(logger.LogConfig{Component: "mcp"})
	if err != nil {
		// Fall back to stderr if logger initialization fails
		panic(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	log.Info("Starting studysage MCP server (mode=%s)", cfg.Mode)

	srv, svc, err := server.CreateServer(cfg, log)
	if err != nil {
		log.Fatal("Failed to create server: %v", err)
	}
	defer svc.Close()

	if err := srv.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Error("Server failed: %v", err)
	}
}
