package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	csvPath := flag.String("csv", "", "override corpus.csvPath (implies csv source)")
	dataDir := flag.String("data-dir", "", "override indexer.dataDir")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *csvPath != "" {
		cfg.Corpus.Source = config.SourceCSV
		cfg.Corpus.CSVPath = *csvPath
	}
	if *dataDir != "" {
		cfg.Indexer.DataDir = *dataDir
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting index build",
		"source", cfg.Corpus.Source,
		"data_dir", cfg.Indexer.DataDir,
		"workers", cfg.Indexer.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	if err := run(ctx, cfg, m); err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics) error {
	start := time.Now()
	src, closeSrc, err := corpus.OpenSource(ctx, cfg.Corpus, cfg.Postgres)
	if err != nil {
		return err
	}
	defer closeSrc()

	engine, err := indexer.NewEngine(cfg.Indexer, m)
	if err != nil {
		return err
	}
	artifacts, err := engine.Build(ctx, src)
	if err != nil {
		return err
	}
	if err := engine.Save(artifacts); err != nil {
		return err
	}

	summary := artifacts.Summary()
	slog.Info("index build complete",
		"corpus_size", summary.Documents,
		"unique_words", summary.UniqueWords,
		"postings", summary.Postings,
		"generation", summary.Generation,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, analytics.Options{BatchSize: 1})
		collector.Start(ctx)
		collector.TrackIndex(analytics.IndexEvent{
			Type:        analytics.EventIndexBuilt,
			Documents:   summary.Documents,
			UniqueWords: summary.UniqueWords,
			Malformed:   artifacts.Stats.Malformed,
			Duplicate:   artifacts.Stats.Duplicate,
			Generation:  summary.Generation,
			LatencyMs:   time.Since(start).Milliseconds(),
			Timestamp:   time.Now().UTC(),
		})
		collector.Close()
	}
	return nil
}
