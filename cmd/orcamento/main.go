package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sistema-orcamento/orcamento/internal/app"
	"github.com/sistema-orcamento/orcamento/internal/auth"
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
	"github.com/sistema-orcamento/orcamento/internal/sales/templates"
	"github.com/sistema-orcamento/orcamento/jobs"
	"github.com/sistema-orcamento/orcamento/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.WithMaxConns(cfg.PGMaxConns), db.WithApplicationName(cfg.ServiceName))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Error("apply schema", slog.Any("error", err))
			os.Exit(1)
		}
	}

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

	metrics := observability.NewMetrics()

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("init token issuer", slog.Any("error", err))
		os.Exit(1)
	}
	authService := auth.NewService(auth.NewRepository(pool), tokens, auth.NewRevocations(redisClient))
	authMiddleware := auth.NewMiddleware(authService, logger)

	companyService := company.NewService(company.NewRepository(pool), company.NewCache(redisClient, cfg.CompanyCacheTTL), logger)
	clientService := clients.NewService(clients.NewRepository(pool))
	productService := products.NewService(products.NewRepository(pool))
	clauseService := clauses.NewService(clauses.NewRepository(pool))

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	quoteService := quotes.NewService(
		quotes.NewRepository(pool),
		productService, clauseService, clientService,
		logger,
		quotes.WithArchiveEnqueuer(jobClient),
		quotes.WithStatusRecorder(metrics),
	)
	templateService := templates.NewService(templates.NewRepository(pool), productService, clauseService)

	renderer, err := document.NewRenderer()
	if err != nil {
		logger.Error("parse document templates", slog.Any("error", err))
		os.Exit(1)
	}
	reportClient := report.NewClient(cfg.GotenbergURL)
	documentService := document.NewService(quoteService, companyService, renderer, reportClient, cfg.Payment(),
		document.WithRenderRecorder(metrics))

	var archive document.ArchiveLinker
	if cfg.ArchiveEnabled() {
		store, err := storage.New(ctx, cfg.Storage())
		if err != nil {
			logger.Error("connect minio", slog.Any("error", err))
			os.Exit(1)
		}
		archive = store
	} else {
		logger.Warn("MINIO_ENDPOINT not set, archive links disabled")
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		AuthMiddleware:   authMiddleware,
		AuthHandler:      auth.NewHandler(logger, authService),
		CompanyHandler:   company.NewHandler(logger, companyService),
		ClientsHandler:   clients.NewHandler(logger, clientService),
		ProductsHandler:  products.NewHandler(logger, productService),
		ClausesHandler:   clauses.NewHandler(logger, clauseService),
		TemplatesHandler: templates.NewHandler(logger, templateService),
		QuotesHandler:    quotes.NewHandler(logger, quoteService),
		DocumentHandler:  document.NewHandler(logger, documentService, archive),
		ReportHandler:    report.NewHandler(reportClient, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Readiness: map[string]app.Pinger{
			"postgres": pool,
			"redis": app.PingerFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
			"gotenberg": reportClient,
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
