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

	"github.com/coursehound/coursehound/internal/course"
	"github.com/coursehound/coursehound/internal/indexer"
	"github.com/coursehound/coursehound/internal/ingestion"
	"github.com/coursehound/coursehound/internal/searcher"
	"github.com/coursehound/coursehound/internal/searcher/cache"
	"github.com/coursehound/coursehound/internal/searcher/handler"
	"github.com/coursehound/coursehound/pkg/config"
	"github.com/coursehound/coursehound/pkg/health"
	"github.com/coursehound/coursehound/pkg/logger"
	"github.com/coursehound/coursehound/pkg/metrics"
	"github.com/coursehound/coursehound/pkg/middleware"
	"github.com/coursehound/coursehound/pkg/postgres"
	pkgredis "github.com/coursehound/coursehound/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	seedDir := flag.String("seed", "", "serve from a directory of scraper TSV files instead of Postgres")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var store course.Store
	var pgClient *postgres.Client
	if *seedDir != "" {
		memStore, err := seedStore(*seedDir)
		if err != nil {
			slog.Error("failed to load seed directory", "dir", *seedDir, "error", err)
			os.Exit(1)
		}
		store = memStore
	} else {
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		store = course.NewPostgresStore(pgClient)
	}

	engine, err := indexer.NewEngine(cfg.Index, m)
	if err != nil {
		slog.Error("failed to create index engine", "error", err)
		os.Exit(1)
	}
	if err := engine.Open(ctx, store); err != nil {
		slog.Error("failed to open indices", "error", err)
		os.Exit(1)
	}
	slog.Info("indices ready", "data_dir", cfg.Index.DataDir, "corpus_size", engine.TotalDocs())

	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, falling back to in-process cache", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}
	queryCache, err := cache.New(redisClient, cfg.Redis, cfg.Search.LocalCacheSize)
	if err != nil {
		slog.Error("failed to create query cache", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker()
	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		if engine.TotalDocs() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d courses indexed", engine.TotalDocs())}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "empty corpus"}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if pgClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := pgClient.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	svc := searcher.New(engine, store, nil)
	h := handler.New(svc, queryCache, m, cfg.Search.DefaultLimit, cfg.Search.MaxResults)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
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

// seedStore builds an in-memory course store from scraper TSV files, for
// local runs without Postgres.
func seedStore(dir string) (*course.MemStore, error) {
	records, failed, err := ingestion.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for name, err := range failed {
		slog.Warn("skipping malformed seed file", "file", name, "error", err)
	}
	courses := make([]course.Course, 0, len(records))
	for _, r := range records {
		courses = append(courses, r.Course())
	}
	slog.Info("seed corpus loaded", "dir", dir, "courses", len(courses), "skipped", len(failed))
	return course.NewMemStore(courses...), nil
}
