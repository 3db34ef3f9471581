package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/facturaia/invoice-pipeline/constants"
)

// ProcessingLog is one audit entry per file per run. Logs are buffered in
// memory during a batch and persisted once the owning run's ID is known.
type ProcessingLog struct {
	ID              primitive.ObjectID         `bson:"_id,omitempty" json:"id,omitempty"`
	InvoiceFilename string                     `bson:"invoice_filename" json:"invoice_filename"`
	ImageURL        string                     `bson:"image_url" json:"image_url"`
	Status          constants.ProcessingStatus `bson:"status" json:"status"`
	ErrorMessage    *string                    `bson:"error_message,omitempty" json:"error_message,omitempty"`
	ProcessingRunID string                     `bson:"processing_run_id" json:"processing_run_id"`
	CreatedAt       time.Time                  `bson:"created_at" json:"created_at"`
}

// StatisticsProcess is the per-batch summary record.
type StatisticsProcess struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProcessDate time.Time          `bson:"process_date" json:"process_date"`
	TotalFiles  int                `bson:"total_files" json:"total_files"`
	Successful  int                `bson:"successful" json:"successful"`
	Errors      int                `bson:"errors" json:"errors"`
	SuccessRate float64            `bson:"success_rate" json:"success_rate"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// ProcessingRun is one record per batch invocation, created after all
// invoices in the batch are known.
type ProcessingRun struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string             `bson:"name,omitempty" json:"name,omitempty"`
	FolderPath      string             `bson:"folder_path" json:"folder_path"`
	TotalFiles      int                `bson:"total_files" json:"total_files"`
	Successful      int                `bson:"successful" json:"successful"`
	Errors          int                `bson:"errors" json:"errors"`
	SuccessRate     float64            `bson:"success_rate" json:"success_rate"`
	Invoices        []string           `bson:"invoices" json:"invoices"`
	ExcelReportPath string             `bson:"excel_report_path" json:"excel_report_path"`
	StartedAt       time.Time          `bson:"started_at" json:"started_at"`
	EndedAt         time.Time          `bson:"ended_at" json:"ended_at"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
