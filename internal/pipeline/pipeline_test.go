package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/entity"
	"github.com/facturaia/invoice-pipeline/internal/extract"
	"github.com/facturaia/invoice-pipeline/internal/report"
	"github.com/facturaia/invoice-pipeline/internal/repository"
)

type fakeStorage struct {
	mu      sync.Mutex
	uploads []string
	failFor map[string]bool
}

func (f *fakeStorage) Upload(_ context.Context, _ []byte, key, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name := range f.failFor {
		if strings.HasSuffix(key, name) {
			return "", errors.New("bucket unavailable")
		}
	}
	f.uploads = append(f.uploads, key)
	return "https://storage.example.com/bucket/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, _ string) error { return nil }

// fakeExtractor routes by the original filename preserved at the end of the
// temp path.
type fakeExtractor struct {
	byName map[string]extract.Extraction
}

func (f *fakeExtractor) Extract(_ context.Context, imagePath string) extract.Extraction {
	for name, x := range f.byName {
		if strings.HasSuffix(imagePath, name) {
			return x
		}
	}
	return extract.Failure("no fixture for " + imagePath)
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	inserted []*entity.Invoice
	failAll  bool
}

func (f *fakeInvoiceRepo) Insert(_ context.Context, inv *entity.Invoice) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return "", errors.New("write concern failed")
	}
	inv.ID = primitive.NewObjectID()
	f.inserted = append(f.inserted, inv)
	return inv.ID.Hex(), nil
}

func (f *fakeInvoiceRepo) GetByID(context.Context, string) repository.Lookup[*entity.Invoice] {
	return repository.NotFound[*entity.Invoice]()
}

func (f *fakeInvoiceRepo) FindByField(context.Context, string, string) repository.Lookup[*entity.Invoice] {
	return repository.NotFound[*entity.Invoice]()
}

func (f *fakeInvoiceRepo) List(context.Context) ([]*entity.Invoice, error) { return nil, nil }

func (f *fakeInvoiceRepo) Update(context.Context, string, *entity.Invoice) repository.Lookup[*entity.Invoice] {
	return repository.NotFound[*entity.Invoice]()
}

func (f *fakeInvoiceRepo) Delete(context.Context, string) repository.Lookup[*entity.Invoice] {
	return repository.NotFound[*entity.Invoice]()
}

type fakeAccounting struct {
	mu    sync.Mutex
	runs  []*entity.ProcessingRun
	logs  []*entity.ProcessingLog
	stats []*entity.StatisticsProcess
}

func (f *fakeAccounting) InsertRun(_ context.Context, run *entity.ProcessingRun) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = primitive.NewObjectID()
	f.runs = append(f.runs, run)
	return run.ID.Hex(), nil
}

func (f *fakeAccounting) InsertLog(_ context.Context, l *entity.ProcessingLog) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = primitive.NewObjectID()
	f.logs = append(f.logs, l)
	return l.ID.Hex(), nil
}

func (f *fakeAccounting) InsertStatistics(_ context.Context, s *entity.StatisticsProcess) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = primitive.NewObjectID()
	f.stats = append(f.stats, s)
	return s.ID.Hex(), nil
}

func (f *fakeAccounting) GetRun(context.Context, string) repository.Lookup[*entity.ProcessingRun] {
	return repository.NotFound[*entity.ProcessingRun]()
}

func (f *fakeAccounting) ListRecentRuns(context.Context, int64) ([]*entity.ProcessingRun, error) {
	return f.runs, nil
}

func (f *fakeAccounting) ListLogs(context.Context) ([]*entity.ProcessingLog, error) {
	return f.logs, nil
}

func (f *fakeAccounting) ListStatistics(context.Context) ([]*entity.StatisticsProcess, error) {
	return f.stats, nil
}

func okExtraction(company string) extract.Extraction {
	raw := fmt.Sprintf(`{"empresa": %q, "precio_total": 100.0}`, company)
	return extract.Extraction{
		OK:          true,
		Fields:      extract.RawFields{"empresa": company, "precio_total": 100.0},
		RawResponse: raw,
	}
}

func newTestOrchestrator(t *testing.T, store *fakeStorage, ext *fakeExtractor, invoices *fakeInvoiceRepo, acc *fakeAccounting) (*Orchestrator, string, string) {
	t.Helper()
	tempDir := t.TempDir()
	reportsDir := t.TempDir()
	o := NewOrchestrator(store, ext, invoices, acc, report.NewGenerator(reportsDir, nil), 2, tempDir, nil)
	return o, tempDir, reportsDir
}

func TestRun_MixedBatch(t *testing.T) {
	store := &fakeStorage{failFor: map[string]bool{}}
	ext := &fakeExtractor{byName: map[string]extract.Extraction{
		"a.png": okExtraction("ACME"),
		"b.png": extract.Failure("quota exceeded"),
		"c.txt": extract.Failure(`unsupported image format ".txt"`),
	}}
	invoices := &fakeInvoiceRepo{}
	acc := &fakeAccounting{}
	o, tempDir, _ := newTestOrchestrator(t, store, ext, invoices, acc)

	files := []UploadFile{
		{Name: "a.png", Content: []byte("png-bytes")},
		{Name: "b.png", Content: []byte("png-bytes")},
		{Name: "c.txt", Content: []byte("text")},
	}
	summary, err := o.Run(context.Background(), "/invoices/march", files)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 2, summary.Errors)
	assert.InDelta(t, 33.33, summary.SuccessRate, 0.01)
	assert.Len(t, summary.InvoiceIDs, 1)
	assert.NotEmpty(t, summary.RunID)

	// One invoice persisted, from the successful file.
	require.Len(t, invoices.inserted, 1)
	assert.Equal(t, "a.png", invoices.inserted[0].InvoiceFile)
	assert.Equal(t, "ACME", invoices.inserted[0].Company)

	// One log per file, all stamped with the run ID.
	require.Len(t, acc.logs, 3)
	for _, l := range acc.logs {
		assert.Equal(t, summary.RunID, l.ProcessingRunID)
	}

	// Run record matches the summary.
	require.Len(t, acc.runs, 1)
	run := acc.runs[0]
	assert.Equal(t, "/invoices/march", run.FolderPath)
	assert.Equal(t, summary.InvoiceIDs, run.Invoices)
	assert.Equal(t, summary.ReportPath, run.ExcelReportPath)

	// Statistics recorded.
	require.Len(t, acc.stats, 1)
	assert.Equal(t, 3, acc.stats[0].TotalFiles)
	assert.Equal(t, 1, acc.stats[0].Successful)

	// Workbook has all three sheets.
	wb, err := excelize.OpenFile(summary.ReportPath)
	require.NoError(t, err)
	defer func() {
		_ = wb.Close()
	}()
	sheets := wb.GetSheetList()
	assert.Contains(t, sheets, "ExtractedData")
	assert.Contains(t, sheets, "Logs_Success")
	assert.Contains(t, sheets, "Logs_Errors")

	// Temp copies are cleaned up.
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_AllSuccessOmitsErrorSheet(t *testing.T) {
	store := &fakeStorage{failFor: map[string]bool{}}
	ext := &fakeExtractor{byName: map[string]extract.Extraction{
		"a.png": okExtraction("ACME"),
		"b.png": okExtraction("Globex"),
	}}
	invoices := &fakeInvoiceRepo{}
	acc := &fakeAccounting{}
	o, _, _ := newTestOrchestrator(t, store, ext, invoices, acc)

	summary, err := o.Run(context.Background(), "batch", []UploadFile{
		{Name: "a.png", Content: []byte("x")},
		{Name: "b.png", Content: []byte("y")},
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, summary.SuccessRate)

	wb, err := excelize.OpenFile(summary.ReportPath)
	require.NoError(t, err)
	defer func() {
		_ = wb.Close()
	}()
	sheets := wb.GetSheetList()
	assert.Contains(t, sheets, "ExtractedData")
	assert.Contains(t, sheets, "Logs_Success")
	assert.NotContains(t, sheets, "Logs_Errors")
}

func TestRun_UploadFailureLogsPlaceholderURL(t *testing.T) {
	store := &fakeStorage{failFor: map[string]bool{"a.png": true}}
	ext := &fakeExtractor{byName: map[string]extract.Extraction{}}
	invoices := &fakeInvoiceRepo{}
	acc := &fakeAccounting{}
	o, _, _ := newTestOrchestrator(t, store, ext, invoices, acc)

	summary, err := o.Run(context.Background(), "batch", []UploadFile{
		{Name: "a.png", Content: []byte("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errors)

	require.Len(t, acc.logs, 1)
	assert.Equal(t, constants.ImageURLNotAvailable, acc.logs[0].ImageURL)
	assert.Equal(t, constants.StatusError, acc.logs[0].Status)
	require.NotNil(t, acc.logs[0].ErrorMessage)
	assert.Contains(t, *acc.logs[0].ErrorMessage, "upload failed")
}

func TestRun_InsertFailureCountsAsError(t *testing.T) {
	store := &fakeStorage{failFor: map[string]bool{}}
	ext := &fakeExtractor{byName: map[string]extract.Extraction{"a.png": okExtraction("ACME")}}
	invoices := &fakeInvoiceRepo{failAll: true}
	acc := &fakeAccounting{}
	o, _, _ := newTestOrchestrator(t, store, ext, invoices, acc)

	summary, err := o.Run(context.Background(), "batch", []UploadFile{
		{Name: "a.png", Content: []byte("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Successful)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, acc.logs, 1)
	require.NotNil(t, acc.logs[0].ErrorMessage)
	assert.Contains(t, *acc.logs[0].ErrorMessage, "persist failed")
}

func TestRun_EmptyBatch(t *testing.T) {
	store := &fakeStorage{failFor: map[string]bool{}}
	ext := &fakeExtractor{byName: map[string]extract.Extraction{}}
	invoices := &fakeInvoiceRepo{}
	acc := &fakeAccounting{}
	o, _, _ := newTestOrchestrator(t, store, ext, invoices, acc)

	summary, err := o.Run(context.Background(), "batch", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0.0, summary.SuccessRate)
	assert.Empty(t, acc.logs)
	require.Len(t, acc.runs, 1)
	assert.FileExists(t, summary.ReportPath)
}
