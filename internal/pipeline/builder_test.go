package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/normalize"
)

func TestBuildSuccess(t *testing.T) {
	at := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	meta := UploadMeta{
		Filename:    "invoice.jpg",
		StorageKey:  "2025/03/14/abc_invoice.jpg",
		ImageURL:    "https://storage.googleapis.com/bucket/2025/03/14/abc_invoice.jpg",
		ProcessedAt: at,
	}
	email := "billing@acme.com"
	fields := normalize.Fields{
		Company:         "ACME",
		Date:            time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		InvoiceNumber:   "INV-1",
		TotalPrice:      120.5,
		Currency:        "ARS",
		NumberOfItems:   2,
		MainDescription: "Consulting",
		TaxID:           "30-12345678-9",
		Address:         "Av. Corrientes 1234",
		Phone:           "+54 11 4000-0000",
		Email:           &email,
	}

	inv := BuildSuccess(meta, fields, `{"empresa":"ACME"}`)

	assert.Equal(t, "invoice.jpg", inv.InvoiceFile)
	assert.Equal(t, "2025/03/14/abc_invoice.jpg", inv.CompletePath)
	require.NotNil(t, inv.ImageURL)
	assert.Equal(t, meta.ImageURL, *inv.ImageURL)
	assert.Equal(t, at, inv.Timestamp)
	assert.Equal(t, "ACME", inv.Company)
	assert.Equal(t, 120.5, inv.TotalPrice)
	assert.Equal(t, constants.StatusSuccess, inv.Status)
	require.NotNil(t, inv.RawAnswer)
	assert.Equal(t, `{"empresa":"ACME"}`, *inv.RawAnswer)
	assert.Nil(t, inv.Error)
}

func TestBuildSuccess_Deterministic(t *testing.T) {
	at := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	meta := UploadMeta{Filename: "a.png", StorageKey: "k", ImageURL: "u", ProcessedAt: at}
	fields := normalize.Fields{Company: "ACME", Date: at}

	a := BuildSuccess(meta, fields, "raw")
	b := BuildSuccess(meta, fields, "raw")
	assert.Equal(t, a, b)
}

func TestBuildLog_ErrorMessageOnlyWhenPresent(t *testing.T) {
	at := time.Now().UTC()

	ok := buildLog("a.png", "http://img", constants.StatusSuccess, "", at)
	assert.Nil(t, ok.ErrorMessage)
	assert.Equal(t, constants.StatusSuccess, ok.Status)

	bad := buildLog("b.png", constants.ImageURLNotAvailable, constants.StatusError, "upload failed", at)
	require.NotNil(t, bad.ErrorMessage)
	assert.Equal(t, "upload failed", *bad.ErrorMessage)
	assert.Equal(t, constants.ImageURLNotAvailable, bad.ImageURL)
}

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 0.0, SuccessRate(0, 0))
	assert.Equal(t, 100.0, SuccessRate(4, 4))
	assert.Equal(t, 50.0, SuccessRate(2, 4))
	assert.InDelta(t, 33.33, SuccessRate(1, 3), 0.01)
}
