package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/docparser/internal/app"
	"github.com/joseph-ayodele/docparser/internal/async"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := app.NewLogger(os.Stdout, cfg.LogLevel, os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	queue := async.NewIngestQueue(logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer, healthServer := server.NewGRPCServer(server.NewDocumentServer(a.Registry, queue, logger, server.WithIngestRoot(cfg.Server.IngestRoot)), logger)

	logger.Info("docparserd listening", "addr", addr, "ingest_root", cfg.Server.IngestRoot)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ProcessTimeout+5*time.Second)
	defer cancel()
	queue.Shutdown(drainCtx)

	stopped := make(chan struct{})
	go func() { grpcServer.GracefulStop(); close(stopped) }()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		grpcServer.Stop()
	}
}
