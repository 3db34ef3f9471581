package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvoiceImage is a stored invoice image managed independently of the batch
// pipeline (standalone upload/replace/delete).
type InvoiceImage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ImageURL  string             `bson:"image_url" json:"image_url"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
