package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hnsexplorer/indexer/internal/aggregates"
	"github.com/hnsexplorer/indexer/internal/api"
	"github.com/hnsexplorer/indexer/internal/cache"
	"github.com/hnsexplorer/indexer/internal/node"
	"github.com/hnsexplorer/indexer/internal/query"
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
	logger.Info("starting query server")

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

	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Warn("redis cache unavailable, continuing without it", zap.Error(err))
	}
	defer redisCache.Close()

	aggs := aggregates.New(cfg, db, nodeClient)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := aggs.Run(ctx); err != nil {
			logger.Error("cached aggregates stopped", zap.Error(err))
		}
	}()

	engine := query.New(cfg, db, nodeClient, aggs, redisCache)

	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	if cfg.Telemetry.PrometheusEnabled {
		ginEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router := api.NewRouter(engine, cfg)
	router.SetupRoutes(ginEngine)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: ginEngine,
	}

	go func() {
		logger.Info("server starting", zap.String("address", srv.Addr), zap.Bool("ssl", cfg.HTTP.SSL))
		var err error
		if cfg.HTTP.SSL {
			err = srv.ListenAndServeTLS(cfg.HTTP.SSLCrt, cfg.HTTP.SSLKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
