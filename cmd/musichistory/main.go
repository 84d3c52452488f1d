package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Tab-and-Quill/spotify-music-history/internal/aggregation"
	corecfg "github.com/Tab-and-Quill/spotify-music-history/internal/core/config"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/Tab-and-Quill/spotify-music-history/internal/ingestion"
	"github.com/Tab-and-Quill/spotify-music-history/internal/pipeline"
	"github.com/Tab-and-Quill/spotify-music-history/internal/projection"
	"github.com/Tab-and-Quill/spotify-music-history/internal/schema"
	schemaapi "github.com/Tab-and-Quill/spotify-music-history/internal/schema/api"
	"github.com/Tab-and-Quill/spotify-music-history/internal/server"
)

const usage = `Usage:
  musichistory [-config file] serve
  musichistory [-config file] [-limit n] import <file.json>...`

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	limit := flag.Int("limit", 10, "Rows per ranked list in import output")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	mode := flag.Arg(0)
	if mode == "" {
		mode = "serve"
	}

	// 0. Initialize Logger (reconfigured once config is loaded)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Server))
	slog.Info("Loaded config", "storage_backend", cfg.Storage.Backend, "mode", mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// 2. Initialize Schema
	spec := schema.Default()
	if cfg.Schema.Path != "" {
		if spec, err = schema.Load(cfg.Schema.Path); err != nil {
			slog.Error("Failed to load schema", "path", cfg.Schema.Path, "error", err)
			os.Exit(1)
		}
	}
	validator := schema.NewValidator(spec)

	// 3. Initialize Storage
	store, err := openStore(cfg.Storage)
	if err != nil {
		if mode == "import" {
			slog.Error("Failed to initialize storage", "backend", cfg.Storage.Backend, "error", err)
			os.Exit(1)
		}
		// Keep serving so /health and every request report the outage.
		slog.Error("Storage unavailable, serving errors", "backend", cfg.Storage.Backend, "error", err)
		store = storage.NewUnavailable(err)
	}
	defer store.Close()

	// 4. Wire services
	job := aggregation.NewJob(store, store, aggregation.JobOptions{
		RankLimit:   cfg.Aggregation.RankLimit,
		WorkerCount: cfg.Aggregation.WorkerCount,
	})
	ingestionSvc := ingestion.NewService(validator, store, cfg.Server.MaxBodySizeMB, cfg.Ingestion.MaxRecords)
	projectionSvc := projection.NewService(store, job)

	switch mode {
	case "serve":
		err = serve(ctx, cfg, store, job, validator, ingestionSvc, projectionSvc)
	case "import":
		err = runImport(ctx, os.Stdout, pipeline.NewWorker(ingestionSvc, projectionSvc, 0), flag.Args()[1:], *limit)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Stopped with error", "mode", mode, "error", err)
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}

func serve(
	ctx context.Context,
	cfg *corecfg.Config,
	store storage.Store,
	job *aggregation.Job,
	validator *schema.Validator,
	ingestionSvc *ingestion.Service,
	projectionSvc *projection.Service,
) error {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	srv := server.New(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), store, cfg.Server.Mode, metricsPath)
	ingestionSvc.RegisterRoutes(srv.Engine)
	projectionSvc.RegisterRoutes(srv.Engine)
	schemaapi.NewService(validator).RegisterRoutes(srv.Engine)
	pipeline.NewEndpoint(ingestionSvc, projectionSvc, int64(cfg.Server.MaxBodySizeMB)*1024*1024).RegisterRoutes(srv.Engine)

	if cfg.Aggregation.Enabled {
		scheduler := aggregation.NewScheduler(cfg.Aggregation.Interval(), job)
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Scheduler stopped with error", "error", err)
			}
		}()
		slog.Info("Aggregation scheduler initialized",
			"interval", cfg.Aggregation.Interval(),
			"rank_limit", cfg.Aggregation.RankLimit,
			"worker_count", cfg.Aggregation.WorkerCount,
		)
	} else {
		slog.Info("Aggregation scheduler disabled by config")
	}

	// HTTP server blocks until ctx is cancelled.
	return srv.Run(ctx)
}

func newLogger(cfg corecfg.ServerConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
