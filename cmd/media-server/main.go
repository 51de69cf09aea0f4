package main

import (
	"context"
	"log"
	"net"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gochat/internal/config"
	"gochat/internal/di"
	"gochat/internal/logger"
	"gochat/internal/server"
)

func main() {
	cfg := config.LoadConfig()

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	mediaServer, cleanup, err := di.InitializeMediaServer(cfg, zl)
	if err != nil {
		zl.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.MediaPort)
	zl.Info("media server starting", zap.String("addr", addr), zap.String("base_url", cfg.Server.MediaBaseURL))

	if err := server.New(zl).WithHTTP(addr, mediaServer, cfg.Server).Run(ctx); err != nil {
		zl.Error("media server stopped with error", zap.Error(err))
	}
}
