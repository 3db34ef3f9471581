package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/entity"
)

var reportStart = time.Date(2025, 3, 14, 10, 30, 45, 0, time.UTC)

func strptr(s string) *string { return &s }

func sampleInvoice(file, company string) *entity.Invoice {
	return &entity.Invoice{
		InvoiceFile:     file,
		ImageURL:        strptr("https://storage.example.com/bucket/" + file),
		Company:         company,
		Date:            time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		InvoiceNumber:   "INV-1",
		TotalPrice:      120.5,
		Currency:        "ARS",
		NumberOfItems:   2,
		MainDescription: "Consulting",
		TaxID:           "30-12345678-9",
		Address:         "Av. Corrientes 1234",
		Phone:           "+54 11 4000-0000",
		Email:           strptr("billing@acme.com"),
		Status:          constants.StatusSuccess,
	}
}

func sampleLog(file string, status constants.ProcessingStatus, errMsg string) *entity.ProcessingLog {
	l := &entity.ProcessingLog{
		InvoiceFilename: file,
		ImageURL:        "https://storage.example.com/bucket/" + file,
		Status:          status,
		CreatedAt:       reportStart,
	}
	if errMsg != "" {
		l.ErrorMessage = &errMsg
	}
	return l
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "invoice_report_2025-03-14T10-30-45.xlsx", Filename(reportStart))
}

func TestGenerate_AllSheets(t *testing.T) {
	g := NewGenerator(t.TempDir(), nil)

	path, err := g.Generate(
		[]*entity.Invoice{sampleInvoice("a.png", "ACME")},
		[]*entity.ProcessingLog{
			sampleLog("a.png", constants.StatusSuccess, ""),
			sampleLog("b.png", constants.StatusError, "quota exceeded"),
		},
		reportStart,
	)
	require.NoError(t, err)
	assert.Equal(t, "invoice_report_2025-03-14T10-30-45.xlsx", filepath.Base(path))

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() {
		_ = wb.Close()
	}()

	sheets := wb.GetSheetList()
	assert.Contains(t, sheets, "ExtractedData")
	assert.Contains(t, sheets, "Logs_Success")
	assert.Contains(t, sheets, "Logs_Errors")
	assert.NotContains(t, sheets, "Sheet1")

	// Header row of the data sheet.
	rows, err := wb.GetRows("ExtractedData")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Invoice File", rows[0][0])
	assert.Equal(t, "Company", rows[0][2])
	assert.Equal(t, "a.png", rows[1][0])
	assert.Equal(t, "ACME", rows[1][2])

	// Error sheet carries the error column.
	errRows, err := wb.GetRows("Logs_Errors")
	require.NoError(t, err)
	require.Len(t, errRows, 2)
	assert.Equal(t, []string{"Invoice File", "Image URL", "Status", "Error", "Created At"}, errRows[0])
	assert.Equal(t, "quota exceeded", errRows[1][3])
}

func TestGenerate_OmitsEmptySheets(t *testing.T) {
	g := NewGenerator(t.TempDir(), nil)

	path, err := g.Generate(
		[]*entity.Invoice{sampleInvoice("a.png", "ACME")},
		[]*entity.ProcessingLog{sampleLog("a.png", constants.StatusSuccess, "")},
		reportStart,
	)
	require.NoError(t, err)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() {
		_ = wb.Close()
	}()
	sheets := wb.GetSheetList()
	assert.Contains(t, sheets, "ExtractedData")
	assert.Contains(t, sheets, "Logs_Success")
	assert.NotContains(t, sheets, "Logs_Errors")
}

func TestGenerate_EmptyBatchKeepsWorkbookValid(t *testing.T) {
	g := NewGenerator(t.TempDir(), nil)

	path, err := g.Generate(nil, nil, reportStart)
	require.NoError(t, err)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() {
		_ = wb.Close()
	}()
	assert.Len(t, wb.GetSheetList(), 1)
}

func TestGenerate_SuccessSheetHasNoErrorColumn(t *testing.T) {
	g := NewGenerator(t.TempDir(), nil)

	path, err := g.Generate(nil, []*entity.ProcessingLog{sampleLog("a.png", constants.StatusSuccess, "")}, reportStart)
	require.NoError(t, err)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() {
		_ = wb.Close()
	}()
	rows, err := wb.GetRows("Logs_Success")
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice File", "Image URL", "Status", "Created At"}, rows[0])
	assert.Equal(t, "Success", rows[1][2])
}
