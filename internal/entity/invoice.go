package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/facturaia/invoice-pipeline/constants"
)

// Invoice represents one extracted (or attempted) invoice for data transfer
// between layers. The document store assigns the ID on insert.
type Invoice struct {
	ID              primitive.ObjectID         `bson:"_id,omitempty" json:"id,omitempty"`
	InvoiceFile     string                     `bson:"invoice_file" json:"invoice_file"`
	CompletePath    string                     `bson:"complete_path" json:"complete_path"`
	ImageURL        *string                    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Timestamp       time.Time                  `bson:"timestamp" json:"timestamp"`
	Company         string                     `bson:"company" json:"company"`
	Date            time.Time                  `bson:"date" json:"date"`
	InvoiceNumber   string                     `bson:"invoice_number" json:"invoice_number"`
	TotalPrice      float64                    `bson:"total_price" json:"total_price"`
	Currency        string                     `bson:"currency" json:"currency"`
	NumberOfItems   int                        `bson:"number_of_items" json:"number_of_items"`
	MainDescription string                     `bson:"main_description" json:"main_description"`
	TaxID           string                     `bson:"cuit_ruc" json:"cuit_ruc"`
	Address         string                     `bson:"address" json:"address"`
	Phone           string                     `bson:"phone" json:"phone"`
	Email           *string                    `bson:"email,omitempty" json:"email,omitempty"`
	Status          constants.ProcessingStatus `bson:"status" json:"status"`
	Error           *string                    `bson:"error,omitempty" json:"error,omitempty"`
	RawAnswer       *string                    `bson:"raw_answer,omitempty" json:"raw_answer,omitempty"`
	CreatedAt       time.Time                  `bson:"created_at" json:"created_at"`
	UpdatedAt       *time.Time                 `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
