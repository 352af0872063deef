package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/sistema-orcamento/orcamento/internal/app"
	"github.com/sistema-orcamento/orcamento/internal/document"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/clauses"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/clients"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/company"
	"github.com/sistema-orcamento/orcamento/internal/masterdata/products"
	"github.com/sistema-orcamento/orcamento/internal/observability"
	"github.com/sistema-orcamento/orcamento/internal/platform/cache"
	"github.com/sistema-orcamento/orcamento/internal/platform/db"
	"github.com/sistema-orcamento/orcamento/internal/platform/storage"
	"github.com/sistema-orcamento/orcamento/internal/sales/quotes"
	"github.com/sistema-orcamento/orcamento/jobs"
	"github.com/sistema-orcamento/orcamento/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	if os.Getenv("SERVICE_NAME") == "" {
		cfg.ServiceName = "orcamento-worker"
	}
	logger := app.NewLogger(cfg)

	if !cfg.ArchiveEnabled() {
		logger.Error("MINIO_ENDPOINT is required by the archive worker")
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns), db.WithApplicationName(cfg.ServiceName))
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := storage.New(ctx, cfg.Storage())
	if err != nil {
		logger.Error("connect minio", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	quoteService := quotes.NewService(
		quotes.NewRepository(pool),
		products.NewService(products.NewRepository(pool)),
		clauses.NewService(clauses.NewRepository(pool)),
		clients.NewService(clients.NewRepository(pool)),
		logger,
	)
	companyService := company.NewService(company.NewRepository(pool), company.NewCache(redisClient, cfg.CompanyCacheTTL), logger)

	renderer, err := document.NewRenderer()
	if err != nil {
		logger.Error("parse document templates", slog.Any("error", err))
		os.Exit(1)
	}
	documentService := document.NewService(quoteService, companyService, renderer, report.NewClient(cfg.GotenbergURL), cfg.Payment(),
		document.WithRenderRecorder(metrics))
	archiveJob := jobs.NewArchiveQuoteJob(documentService, store, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskArchiveQuoteDocument, Handler: archiveJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting archive worker", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
