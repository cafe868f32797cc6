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

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer"
	"github.com/coursehound/coursehound/internal/searcher/cache"
	"github.com/coursehound/coursehound/pkg/config"
	"github.com/coursehound/coursehound/pkg/kafka"
	"github.com/coursehound/coursehound/pkg/logger"
	"github.com/coursehound/coursehound/pkg/postgres"
	pkgredis "github.com/coursehound/coursehound/pkg/redis"
)

// IndexCompleteEvent announces rebuilt indices to downstream consumers.
type IndexCompleteEvent struct {
	CorpusSize  int       `json:"corpus_size"`
	DataDir     string    `json:"data_dir"`
	CompletedAt time.Time `json:"completed_at"`
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	rebuild := flag.Bool("rebuild", false, "discard persisted artifacts and rebuild from the store")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting index build", "data_dir", cfg.Index.DataDir, "rebuild", *rebuild)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()
	store := course.NewPostgresStore(pgClient)

	engine, err := indexer.NewEngine(cfg.Index, nil)
	if err != nil {
		slog.Error("failed to create index engine", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	if *rebuild {
		err = engine.Rebuild(ctx, store)
	} else {
		err = engine.Open(ctx, store)
	}
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("index build complete",
		"corpus_size", engine.TotalDocs(),
		"duration", time.Since(start),
	)

	invalidateCache(ctx, cfg)
	announceCompletion(ctx, cfg, engine.TotalDocs())
}

// invalidateCache drops cached query results so searchers do not serve
// responses computed against the previous indices.
func invalidateCache(ctx context.Context, cfg *config.Config) {
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, skipping cache invalidation", "error", err)
		return
	}
	defer redisClient.Close()

	queryCache, err := cache.New(redisClient, cfg.Redis, 0)
	if err != nil {
		slog.Warn("skipping cache invalidation", "error", err)
		return
	}
	if err := queryCache.Invalidate(ctx); err != nil {
		slog.Warn("cache invalidation failed", "error", err)
	}
}

func announceCompletion(ctx context.Context, cfg *config.Config, corpusSize int) {
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
	defer producer.Close()

	event := IndexCompleteEvent{
		CorpusSize:  corpusSize,
		DataDir:     cfg.Index.DataDir,
		CompletedAt: time.Now().UTC(),
	}
	if err := producer.Publish(ctx, kafka.Event{Key: "index-complete", Value: event}); err != nil {
		slog.Warn("failed to announce index completion", "error", err)
		return
	}
	slog.Info("index completion announced", "topic", cfg.Kafka.Topics.IndexComplete)
}
