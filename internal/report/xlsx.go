package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/entity"
)

const (
	sheetExtracted = "ExtractedData"
	sheetSuccess   = "Logs_Success"
	sheetErrors    = "Logs_Errors"
)

// Generator writes the per-batch XLSX workbook: one sheet of extracted
// invoice fields plus one sheet per log outcome. Sheets with no rows are
// omitted entirely.
type Generator struct {
	dir    string
	logger *slog.Logger
}

func NewGenerator(dir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{dir: dir, logger: logger}
}

// Filename derives the deterministic workbook name from the batch start time.
func Filename(startedAt time.Time) string {
	return fmt.Sprintf("invoice_report_%s.xlsx", startedAt.UTC().Format("2006-01-02T15-04-05"))
}

// Generate builds the workbook for one batch and returns its path on disk.
// Invoices carry only successfully extracted records; logs carry every file.
func (g *Generator) Generate(invoices []*entity.Invoice, logs []*entity.ProcessingLog, startedAt time.Time) (string, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	var successLogs, errorLogs []*entity.ProcessingLog
	for _, l := range logs {
		if l.Status == constants.StatusSuccess {
			successLogs = append(successLogs, l)
		} else {
			errorLogs = append(errorLogs, l)
		}
	}

	if len(invoices) > 0 {
		if err := g.writeExtracted(f, invoices); err != nil {
			return "", err
		}
	}
	if len(successLogs) > 0 {
		if err := g.writeLogs(f, sheetSuccess, successLogs, false); err != nil {
			return "", err
		}
	}
	if len(errorLogs) > 0 {
		if err := g.writeLogs(f, sheetErrors, errorLogs, true); err != nil {
			return "", err
		}
	}

	// The workbook opens with a default sheet; drop it once real sheets
	// exist, otherwise keep it so the file stays valid.
	if len(f.GetSheetList()) > 1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return "", fmt.Errorf("xlsx drop default sheet: %w", err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	path := filepath.Join(g.dir, Filename(startedAt))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx save: %w", err)
	}

	g.logger.Info("report.xlsx.ok",
		"path", path,
		"invoices", len(invoices),
		"success_logs", len(successLogs),
		"error_logs", len(errorLogs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return path, nil
}

func (g *Generator) writeExtracted(f *excelize.File, invoices []*entity.Invoice) error {
	if _, err := f.NewSheet(sheetExtracted); err != nil {
		return err
	}

	headers := []string{
		"Invoice File",
		"Image URL",
		"Company",
		"Invoice Date",
		"Invoice Number",
		"Total Price",
		"Currency",
		"Items",
		"Main Description",
		"Tax ID",
		"Address",
		"Phone",
		"Email",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetExtracted, cell, h)
	}

	row := 2
	for _, inv := range invoices {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetExtracted, cell, v)
		}

		write(1, inv.InvoiceFile)
		write(2, deref(inv.ImageURL))
		write(3, inv.Company)
		if !inv.Date.IsZero() {
			write(4, inv.Date.Format("2006-01-02"))
		} else {
			write(4, "")
		}
		write(5, inv.InvoiceNumber)
		write(6, inv.TotalPrice)
		write(7, inv.Currency)
		write(8, inv.NumberOfItems)
		write(9, inv.MainDescription)
		write(10, inv.TaxID)
		write(11, inv.Address)
		write(12, inv.Phone)
		write(13, deref(inv.Email))

		row++
	}

	_ = f.SetColWidth(sheetExtracted, "A", "A", 32)
	_ = f.SetColWidth(sheetExtracted, "B", "B", 60)
	_ = f.SetColWidth(sheetExtracted, "C", "C", 28)
	_ = f.SetColWidth(sheetExtracted, "D", "E", 16)
	_ = f.SetColWidth(sheetExtracted, "F", "H", 12)
	_ = f.SetColWidth(sheetExtracted, "I", "I", 40)
	_ = f.SetColWidth(sheetExtracted, "J", "M", 22)
	return nil
}

func (g *Generator) writeLogs(f *excelize.File, sheet string, logs []*entity.ProcessingLog, withError bool) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Invoice File", "Image URL", "Status"}
	if withError {
		headers = append(headers, "Error")
	}
	headers = append(headers, "Created At")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, l := range logs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		col := 1
		write(col, l.InvoiceFilename)
		col++
		write(col, l.ImageURL)
		col++
		write(col, string(l.Status))
		col++
		if withError {
			write(col, deref(l.ErrorMessage))
			col++
		}
		write(col, l.CreatedAt.UTC().Format("2006-01-02 15:04:05"))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 32)
	_ = f.SetColWidth(sheet, "B", "B", 60)
	if withError {
		_ = f.SetColWidth(sheet, "D", "D", 60)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
