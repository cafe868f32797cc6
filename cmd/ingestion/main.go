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
	"github.com/coursehound/coursehound/internal/currency"
	"github.com/coursehound/coursehound/internal/ingestion"
	"github.com/coursehound/coursehound/pkg/config"
	"github.com/coursehound/coursehound/pkg/health"
	"github.com/coursehound/coursehound/pkg/kafka"
	"github.com/coursehound/coursehound/pkg/logger"
	"github.com/coursehound/coursehound/pkg/metrics"
	"github.com/coursehound/coursehound/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	seedDir := flag.String("seed", "", "publish scraper TSV files from this directory and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seedDir != "" {
		if err := seed(ctx, cfg, *seedDir); err != nil {
			slog.Error("seed run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("starting ingestion service", "topic", cfg.Kafka.Topics.CourseIngest)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()

	store := course.NewPostgresStore(pgClient)
	if err := store.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	converter := currency.NewClient(cfg.Currency.BaseURL, cfg.Currency.APIKey, &http.Client{
		Timeout: cfg.Currency.Timeout,
	})

	sink := ingestion.NewSink(store, converter, m)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CourseIngest, sink.HandleMessage)
	defer consumer.Close()

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := pgClient.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("GET /health/live", checker.LiveHandler())
	healthMux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: healthMux,
	}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		healthServer.Shutdown(shutdownCtx)
	}()

	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion service stopped")
}

// seed publishes every TSV record under dir onto the ingest topic, letting
// the running consumer validate and persist them.
func seed(ctx context.Context, cfg *config.Config, dir string) error {
	records, failed, err := ingestion.LoadDir(dir)
	if err != nil {
		return err
	}
	for name, err := range failed {
		slog.Warn("skipping malformed seed file", "file", name, "error", err)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CourseIngest)
	defer producer.Close()
	publisher := ingestion.NewPublisher(producer)

	published := 0
	for _, record := range records {
		if err := publisher.Publish(ctx, record); err != nil {
			slog.Warn("skipping record", "id", record.ID, "error", err)
			continue
		}
		published++
	}
	slog.Info("seed run complete", "dir", dir, "published", published, "skipped", len(records)-published+len(failed))
	return nil
}
