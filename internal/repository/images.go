package repository

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/facturaia/invoice-pipeline/internal/common"
	"github.com/facturaia/invoice-pipeline/internal/entity"
)

// InvoiceImageRepository stores invoice images managed outside of batch runs.
type InvoiceImageRepository interface {
	Insert(ctx context.Context, img *entity.InvoiceImage) (string, error)
	GetByID(ctx context.Context, id string) Lookup[*entity.InvoiceImage]
	List(ctx context.Context) ([]*entity.InvoiceImage, error)
	UpdateURL(ctx context.Context, id string, imageURL string) Lookup[*entity.InvoiceImage]
	Delete(ctx context.Context, id string) Lookup[*entity.InvoiceImage]
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
}

type mongoImageRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewInvoiceImageRepository(db *mongo.Database, logger *slog.Logger) InvoiceImageRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &mongoImageRepository{
		coll:   db.Collection(CollImageInvoices),
		logger: logger,
	}
}

func (r *mongoImageRepository) Insert(ctx context.Context, img *entity.InvoiceImage) (string, error) {
	now := time.Now().UTC()
	img.CreatedAt = now
	img.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, img)
	if err != nil {
		r.logger.Error("images.insert.failed", "image_url", img.ImageURL, "error", err)
		return "", common.WrapError(err, "insert invoice image")
	}
	id := res.InsertedID.(primitive.ObjectID)
	img.ID = id
	return id.Hex(), nil
}

func (r *mongoImageRepository) GetByID(ctx context.Context, id string) Lookup[*entity.InvoiceImage] {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Fault[*entity.InvoiceImage](common.NewAppError("INVALID_ID", "invalid image ID format", common.ErrInvalidInput))
	}

	var img entity.InvoiceImage
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&img)
	switch {
	case err == nil:
		return Found(&img)
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound[*entity.InvoiceImage]()
	default:
		r.logger.Error("images.get.failed", "image_id", id, "error", err)
		return Fault[*entity.InvoiceImage](common.WrapError(err, "find invoice image"))
	}
}

func (r *mongoImageRepository) List(ctx context.Context) ([]*entity.InvoiceImage, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		r.logger.Error("images.list.failed", "error", err)
		return nil, common.WrapError(err, "list invoice images")
	}
	defer func() {
		_ = cur.Close(ctx)
	}()

	var out []*entity.InvoiceImage
	if err := cur.All(ctx, &out); err != nil {
		return nil, common.WrapError(err, "decode invoice images")
	}
	return out, nil
}

func (r *mongoImageRepository) UpdateURL(ctx context.Context, id string, imageURL string) Lookup[*entity.InvoiceImage] {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Fault[*entity.InvoiceImage](common.NewAppError("INVALID_ID", "invalid image ID format", common.ErrInvalidInput))
	}

	update := bson.M{"$set": bson.M{
		"image_url":  imageURL,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var img entity.InvoiceImage
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&img)
	switch {
	case err == nil:
		return Found(&img)
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound[*entity.InvoiceImage]()
	default:
		r.logger.Error("images.update.failed", "image_id", id, "error", err)
		return Fault[*entity.InvoiceImage](common.WrapError(err, "update invoice image"))
	}
}

func (r *mongoImageRepository) Delete(ctx context.Context, id string) Lookup[*entity.InvoiceImage] {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Fault[*entity.InvoiceImage](common.NewAppError("INVALID_ID", "invalid image ID format", common.ErrInvalidInput))
	}

	var img entity.InvoiceImage
	err = r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&img)
	switch {
	case err == nil:
		return Found(&img)
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound[*entity.InvoiceImage]()
	default:
		r.logger.Error("images.delete.failed", "image_id", id, "error", err)
		return Fault[*entity.InvoiceImage](common.WrapError(err, "delete invoice image"))
	}
}

// ExistsByFilename reports whether any stored image URL ends with the given
// original filename. Storage keys embed the original name after the UUID
// prefix, so a suffix match detects duplicate uploads.
func (r *mongoImageRepository) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	pattern := regexp.QuoteMeta(filename) + "$"
	n, err := r.coll.CountDocuments(ctx, bson.M{"image_url": bson.M{"$regex": pattern}})
	if err != nil {
		r.logger.Error("images.exists.failed", "filename", filename, "error", err)
		return false, common.WrapError(err, "count invoice images")
	}
	return n > 0, nil
}
