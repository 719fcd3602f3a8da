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
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"scheme", cfg.Search.Scheme,
		"data_dir", cfg.Indexer.DataDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	start := time.Now()
	engine, err := indexer.NewEngine(cfg.Indexer, m)
	if err != nil {
		slog.Error("failed to create index engine", "error", err)
		os.Exit(1)
	}
	artifacts, err := engine.Load(ctx)
	if err != nil {
		slog.Error("failed to load index artifacts; run the indexer first", "error", err)
		os.Exit(1)
	}
	exec, err := executor.Open(ctx, artifacts, cfg.Search, m)
	if err != nil {
		slog.Error("failed to build vector index", "error", err)
		os.Exit(1)
	}
	summary := artifacts.Summary()
	slog.Info("index ready",
		"corpus_size", summary.Documents,
		"unique_words", summary.UniqueWords,
		"generation", summary.Generation,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, generation %s", summary.Documents, summary.Generation),
		}
	})

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, shared cache tier disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			checker.Register("redis", health.Optional(redisClient.Ping))
			slog.Info("shared cache tier enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	queryCache, err := cache.New(redisClient, cache.Options{
		LocalSize:  cfg.Search.LocalCacheSize,
		TTL:        cfg.Redis.CacheTTL,
		Generation: summary.Generation,
	}, m)
	if err != nil {
		slog.Error("failed to create query cache", "error", err)
		os.Exit(1)
	}

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, analytics.Options{})
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("analytics enabled", "topic", cfg.Kafka.Topics.SearchEvents)
	}

	h := handler.New(exec, queryCache, collector, m, cfg.Search, summary)
	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	// Metrics sits directly on the mux so it can read the matched pattern.
	chain := middleware.Metrics(m)(mux)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
