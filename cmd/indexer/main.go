package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hnsexplorer/indexer/internal/aggregates"
	"github.com/hnsexplorer/indexer/internal/indexer"
	"github.com/hnsexplorer/indexer/internal/node"
	"github.com/hnsexplorer/indexer/internal/store"
	"github.com/hnsexplorer/indexer/pkg/config"
	"github.com/hnsexplorer/indexer/pkg/logging"
	"github.com/hnsexplorer/indexer/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("starting indexer")

	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	db, err := store.New(&cfg.Store, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("failed to connect to secondary store", zap.Error(err))
	}
	defer db.Close()

	nodeClient, err := node.New(&cfg.Node)
	if err != nil {
		logger.Fatal("failed to construct chain client", zap.Error(err))
	}

	idx := indexer.New(cfg, db, nodeClient)
	aggs := aggregates.New(cfg, db, nodeClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- idx.Run(ctx) }()
	go func() { errCh <- aggs.Run(ctx) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down indexer")
	case err := <-errCh:
		if err != nil {
			logger.Error("indexer component exited", zap.Error(err))
		}
	}

	cancel()
	logger.Info("indexer exited")
}
