// Command invoice-batch processes every supported image in a folder through
// the extraction pipeline and prints the batch summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	gcs "cloud.google.com/go/storage"
	"github.com/joho/godotenv"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/common"
	"github.com/facturaia/invoice-pipeline/internal/extract/gemini"
	"github.com/facturaia/invoice-pipeline/internal/pipeline"
	"github.com/facturaia/invoice-pipeline/internal/report"
	"github.com/facturaia/invoice-pipeline/internal/repository"
	"github.com/facturaia/invoice-pipeline/internal/storage"
)

func main() {
	folder := flag.String("folder", "", "folder containing invoice images (required)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *folder == "" {
		fmt.Fprintln(os.Stderr, "usage: invoice-batch -folder <path>")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		logger.Info("batch.dotenv.skipped", "reason", "no .env file, using process env")
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("batch.config.invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := collectFiles(*folder)
	if err != nil {
		logger.Error("batch.scan.failed", "folder", *folder, "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("no supported image files found in %s\n", *folder)
		return
	}

	client, db, err := repository.Open(ctx, repository.Config{
		URI:         cfg.Database.URI,
		Database:    cfg.Database.Database,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("batch.db.connect_failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(context.Background(), client, logger)

	gcsClient, err := gcs.NewClient(ctx)
	if err != nil {
		logger.Error("batch.storage.client_failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = gcsClient.Close()
	}()

	extractor, err := gemini.NewClient(ctx, gemini.Config{
		ProjectID: cfg.Gemini.ProjectID,
		Region:    cfg.Gemini.Region,
		Model:     cfg.Gemini.Model,
		Timeout:   cfg.Gemini.Timeout,
	}, logger)
	if err != nil {
		logger.Error("batch.gemini.client_failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = extractor.Close()
	}()

	orchestrator := pipeline.NewOrchestrator(
		storage.NewGCSStorage(gcsClient, cfg.Storage.Bucket, logger),
		extractor,
		repository.NewInvoiceRepository(db, logger),
		repository.NewRunAccountingStore(db, logger),
		report.NewGenerator(cfg.Pipeline.ReportsDir, logger),
		cfg.Pipeline.Workers,
		cfg.Pipeline.TempDir,
		logger,
	)

	summary, err := orchestrator.Run(ctx, *folder, files)
	if err != nil {
		logger.Error("batch.run.failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("run %s finished\n", summary.RunID)
	fmt.Printf("  total files: %d\n", summary.Total)
	fmt.Printf("  successful:  %d\n", summary.Successful)
	fmt.Printf("  errors:      %d\n", summary.Errors)
	fmt.Printf("  success rate: %.2f%%\n", summary.SuccessRate)
	fmt.Printf("  report: %s\n", summary.ReportPath)
}

// collectFiles reads every supported image in the folder (non-recursive)
// into memory, sorted by name for a stable batch order.
func collectFiles(folder string) ([]pipeline.UploadFile, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var files []pipeline.UploadFile
	for _, e := range entries {
		if e.IsDir() || !constants.AllowedExt(filepath.Ext(e.Name())) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(folder, e.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, pipeline.UploadFile{
			Name:        e.Name(),
			Content:     content,
			ContentType: mime.TypeByExtension(filepath.Ext(e.Name())),
		})
	}
	return files, nil
}
