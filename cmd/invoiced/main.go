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

	gcs "cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/facturaia/invoice-pipeline/internal/common"
	"github.com/facturaia/invoice-pipeline/internal/extract/gemini"
	"github.com/facturaia/invoice-pipeline/internal/pipeline"
	"github.com/facturaia/invoice-pipeline/internal/report"
	"github.com/facturaia/invoice-pipeline/internal/repository"
	"github.com/facturaia/invoice-pipeline/internal/server"
	"github.com/facturaia/invoice-pipeline/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("main.dotenv.skipped", "reason", "no .env file, using process env")
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("main.config.invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := repository.Open(ctx, repository.Config{
		URI:         cfg.Database.URI,
		Database:    cfg.Database.Database,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("main.db.connect_failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(context.Background(), client, logger)

	if err := repository.HealthCheck(ctx, client, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("main.db.health_failed", "error", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(ctx)
	if err != nil {
		logger.Error("main.storage.client_failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = gcsClient.Close()
	}()
	objectStore := storage.NewGCSStorage(gcsClient, cfg.Storage.Bucket, logger)

	extractor, err := gemini.NewClient(ctx, gemini.Config{
		ProjectID: cfg.Gemini.ProjectID,
		Region:    cfg.Gemini.Region,
		Model:     cfg.Gemini.Model,
		Timeout:   cfg.Gemini.Timeout,
	}, logger)
	if err != nil {
		logger.Error("main.gemini.client_failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = extractor.Close()
	}()

	invoices := repository.NewInvoiceRepository(db, logger)
	images := repository.NewInvoiceImageRepository(db, logger)
	accounting := repository.NewRunAccountingStore(db, logger)
	reports := report.NewGenerator(cfg.Pipeline.ReportsDir, logger)

	orchestrator := pipeline.NewOrchestrator(
		objectStore,
		extractor,
		invoices,
		accounting,
		reports,
		cfg.Pipeline.Workers,
		cfg.Pipeline.TempDir,
		logger,
	)

	health := func(c *gin.Context) error {
		return repository.HealthCheck(c.Request.Context(), client, cfg.Database.DialTimeout, logger)
	}
	srv := server.New(orchestrator, invoices, images, accounting, objectStore, health, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("main.http.listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("main.http.failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("main.shutdown.start")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("main.shutdown.http_failed", "error", err)
	}
	logger.Info("main.shutdown.done")
}
