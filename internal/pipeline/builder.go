package pipeline

import (
	"time"

	"github.com/facturaia/invoice-pipeline/constants"
	"github.com/facturaia/invoice-pipeline/internal/entity"
	"github.com/facturaia/invoice-pipeline/internal/normalize"
)

// UploadMeta identifies one stored file: the original upload name plus where
// it landed in object storage.
type UploadMeta struct {
	Filename    string
	StorageKey  string
	ImageURL    string
	ProcessedAt time.Time
}

// BuildSuccess assembles the invoice document for a successful extraction.
// Pure: same inputs always produce the same document (IDs and created_at are
// stamped by the store on insert).
func BuildSuccess(meta UploadMeta, fields normalize.Fields, rawResponse string) *entity.Invoice {
	imageURL := meta.ImageURL
	raw := rawResponse
	return &entity.Invoice{
		InvoiceFile:     meta.Filename,
		CompletePath:    meta.StorageKey,
		ImageURL:        &imageURL,
		Timestamp:       meta.ProcessedAt,
		Company:         fields.Company,
		Date:            fields.Date,
		InvoiceNumber:   fields.InvoiceNumber,
		TotalPrice:      fields.TotalPrice,
		Currency:        fields.Currency,
		NumberOfItems:   fields.NumberOfItems,
		MainDescription: fields.MainDescription,
		TaxID:           fields.TaxID,
		Address:         fields.Address,
		Phone:           fields.Phone,
		Email:           fields.Email,
		Status:          constants.StatusSuccess,
		RawAnswer:       &raw,
	}
}

// buildLog assembles one audit entry. The run ID is stamped later, once the
// owning run document exists.
func buildLog(filename, imageURL string, status constants.ProcessingStatus, errMsg string, at time.Time) *entity.ProcessingLog {
	l := &entity.ProcessingLog{
		InvoiceFilename: filename,
		ImageURL:        imageURL,
		Status:          status,
		CreatedAt:       at,
	}
	if errMsg != "" {
		l.ErrorMessage = &errMsg
	}
	return l
}

// SuccessRate is the batch success percentage on a 0-100 scale; an empty
// batch rates 0.
func SuccessRate(successful, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(successful) / float64(total) * 100
}
