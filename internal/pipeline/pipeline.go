package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/common"
	"github.com/facturaia/invoice-pipeline/internal/entity"
	"github.com/facturaia/invoice-pipeline/internal/extract"
	"github.com/facturaia/invoice-pipeline/internal/normalize"
	"github.com/facturaia/invoice-pipeline/internal/report"
	"github.com/facturaia/invoice-pipeline/internal/repository"
	"github.com/facturaia/invoice-pipeline/internal/storage"
)

// UploadFile is one in-memory file submitted to a batch.
type UploadFile struct {
	Name        string
	Content     []byte
	ContentType string
}

// Summary is the caller-facing result of one batch run.
type Summary struct {
	RunID       string   `json:"run_id"`
	Total       int      `json:"total_files"`
	Successful  int      `json:"successful"`
	Errors      int      `json:"errors"`
	SuccessRate float64  `json:"success_rate"`
	ReportPath  string   `json:"report_path"`
	InvoiceIDs  []string `json:"invoice_ids"`
}

// Orchestrator drives one batch end to end: upload every file to object
// storage, extract fields from each image, persist the successful invoices,
// then record statistics, the XLSX report and the run itself. Individual file
// failures never abort the batch; only bookkeeping failures do.
type Orchestrator struct {
	storage    storage.ObjectStorage
	extractor  extract.FieldExtractor
	invoices   repository.InvoiceRepository
	accounting repository.RunAccountingStore
	reports    *report.Generator
	logger     *slog.Logger
	workers    int
	tempDir    string
}

func NewOrchestrator(
	store storage.ObjectStorage,
	extractor extract.FieldExtractor,
	invoices repository.InvoiceRepository,
	accounting repository.RunAccountingStore,
	reports *report.Generator,
	workers int,
	tempDir string,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		storage:    store,
		extractor:  extractor,
		invoices:   invoices,
		accounting: accounting,
		reports:    reports,
		logger:     logger,
		workers:    workers,
		tempDir:    tempDir,
	}
}

// fileResult is the per-file outcome, indexed by submission order so batch
// bookkeeping is deterministic regardless of worker scheduling.
type fileResult struct {
	invoiceID string
	invoice   *entity.Invoice
	log       *entity.ProcessingLog
}

// Run processes one batch. folderPath records where the files came from (a
// directory for the CLI, a synthetic label for HTTP uploads).
func (o *Orchestrator) Run(ctx context.Context, folderPath string, files []UploadFile) (*Summary, error) {
	startedAt := time.Now().UTC()
	o.logger.Info("pipeline.run.start",
		"req_id", common.RequestIDFromContext(ctx),
		"folder_path", folderPath,
		"files", len(files),
		"workers", o.workers,
	)

	if err := os.MkdirAll(o.tempDir, 0o755); err != nil {
		return nil, common.WrapError(err, "create temp dir")
	}

	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, file := range files {
		g.Go(func() error {
			results[i] = o.processFile(gctx, file)
			return nil
		})
	}
	// Workers never return errors; per-file failures land in results.
	_ = g.Wait()

	var (
		invoices   []*entity.Invoice
		invoiceIDs []string
		logs       = make([]*entity.ProcessingLog, 0, len(results))
		successful int
	)
	for _, res := range results {
		logs = append(logs, res.log)
		if res.invoiceID != "" {
			successful++
			invoiceIDs = append(invoiceIDs, res.invoiceID)
			invoices = append(invoices, res.invoice)
		}
	}
	total := len(files)
	errCount := total - successful
	rate := SuccessRate(successful, total)

	if _, err := o.accounting.InsertStatistics(ctx, &entity.StatisticsProcess{
		ProcessDate: startedAt,
		TotalFiles:  total,
		Successful:  successful,
		Errors:      errCount,
		SuccessRate: rate,
	}); err != nil {
		return nil, err
	}

	reportPath, err := o.reports.Generate(invoices, logs, startedAt)
	if err != nil {
		return nil, common.WrapError(err, "generate batch report")
	}

	run := &entity.ProcessingRun{
		Name:            fmt.Sprintf("run_%s", startedAt.Format("2006-01-02T15-04-05")),
		FolderPath:      folderPath,
		TotalFiles:      total,
		Successful:      successful,
		Errors:          errCount,
		SuccessRate:     rate,
		Invoices:        invoiceIDs,
		ExcelReportPath: reportPath,
		StartedAt:       startedAt,
		EndedAt:         time.Now().UTC(),
	}
	runID, err := o.accounting.InsertRun(ctx, run)
	if err != nil {
		return nil, err
	}

	// Logs are buffered during the batch and persisted only now, once the
	// owning run's ID exists to stamp on them.
	for _, l := range logs {
		l.ProcessingRunID = runID
		if _, err := o.accounting.InsertLog(ctx, l); err != nil {
			return nil, err
		}
	}

	o.logger.Info("pipeline.run.ok",
		"run_id", runID,
		"total", total,
		"successful", successful,
		"errors", errCount,
		"success_rate", rate,
		"report_path", reportPath,
		"elapsed_ms", time.Since(startedAt).Milliseconds(),
	)
	return &Summary{
		RunID:       runID,
		Total:       total,
		Successful:  successful,
		Errors:      errCount,
		SuccessRate: rate,
		ReportPath:  reportPath,
		InvoiceIDs:  invoiceIDs,
	}, nil
}

// processFile handles one file in isolation. It never returns an error and
// never panics out: any failure, including a panic, becomes an Error log
// entry for the batch.
func (o *Orchestrator) processFile(ctx context.Context, file UploadFile) (res fileResult) {
	processedAt := time.Now().UTC()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline.file.panic", "filename", file.Name, "panic", r)
			res = fileResult{log: buildLog(file.Name, constants.ImageURLNotAvailable, constants.StatusError,
				fmt.Sprintf("internal error: %v", r), processedAt)}
		}
	}()

	key := fmt.Sprintf("%s/%s_%s", processedAt.Format("2006/01/02"), uuid.New().String(), filepath.Base(file.Name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(file.Name))
	}

	imageURL, err := o.storage.Upload(ctx, file.Content, key, contentType)
	if err != nil {
		o.logger.Error("pipeline.upload.failed", "filename", file.Name, "error", err)
		return fileResult{log: buildLog(file.Name, constants.ImageURLNotAvailable, constants.StatusError,
			fmt.Sprintf("upload failed: %v", err), processedAt)}
	}

	tmpPath, cleanup, err := o.writeTemp(file)
	if err != nil {
		o.logger.Error("pipeline.temp.failed", "filename", file.Name, "error", err)
		return fileResult{log: buildLog(file.Name, imageURL, constants.StatusError,
			fmt.Sprintf("temp file failed: %v", err), processedAt)}
	}
	defer cleanup()

	xr := o.extractor.Extract(ctx, tmpPath)
	if !xr.OK {
		o.logger.Warn("pipeline.extract.failed", "filename", file.Name, "error", xr.ErrorMessage)
		return fileResult{log: buildLog(file.Name, imageURL, constants.StatusError, xr.ErrorMessage, processedAt)}
	}

	fields := normalize.Normalize(xr.Fields, processedAt)
	inv := BuildSuccess(UploadMeta{
		Filename:    file.Name,
		StorageKey:  key,
		ImageURL:    imageURL,
		ProcessedAt: processedAt,
	}, fields, xr.RawResponse)

	id, err := o.invoices.Insert(ctx, inv)
	if err != nil {
		o.logger.Error("pipeline.insert.failed", "filename", file.Name, "error", err)
		return fileResult{log: buildLog(file.Name, imageURL, constants.StatusError,
			fmt.Sprintf("persist failed: %v", err), processedAt)}
	}

	o.logger.Info("pipeline.file.ok", "filename", file.Name, "invoice_id", id)
	return fileResult{
		invoiceID: id,
		invoice:   inv,
		log:       buildLog(file.Name, imageURL, constants.StatusSuccess, "", processedAt),
	}
}

// writeTemp copies the upload to a private temp file for the extractor; the
// returned cleanup always removes it.
func (o *Orchestrator) writeTemp(file UploadFile) (string, func(), error) {
	base := filepath.Base(file.Name)
	f, err := os.CreateTemp(o.tempDir, "*_"+strings.ReplaceAll(base, string(os.PathSeparator), "_"))
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() {
		_ = os.Remove(path)
	}
	if _, err := f.Write(file.Content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
