package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/facturaia/invoice-pipeline/internal/common"
	"github.com/facturaia/invoice-pipeline/internal/entity"
)

// InvoiceRepository is the persistence surface for invoice records. All
// single-record reads report through Lookup so "not found" never travels as
// an error.
type InvoiceRepository interface {
	Insert(ctx context.Context, inv *entity.Invoice) (string, error)
	GetByID(ctx context.Context, id string) Lookup[*entity.Invoice]
	FindByField(ctx context.Context, field, value string) Lookup[*entity.Invoice]
	List(ctx context.Context) ([]*entity.Invoice, error)
	Update(ctx context.Context, id string, inv *entity.Invoice) Lookup[*entity.Invoice]
	Delete(ctx context.Context, id string) Lookup[*entity.Invoice]
}

type invoiceRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewInvoiceRepository(db *mongo.Database, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepository{coll: db.Collection(CollInvoices), logger: logger}
}

func (r *invoiceRepository) Insert(ctx context.Context, inv *entity.Invoice) (string, error) {
	inv.CreatedAt = time.Now().UTC()

	res, err := r.coll.InsertOne(ctx, inv)
	if err != nil {
		r.logger.Error("invoices.insert.failed", "invoice_file", inv.InvoiceFile, "error", err)
		return "", common.WrapError(err, "insert invoice")
	}

	id := res.InsertedID.(primitive.ObjectID)
	inv.ID = id
	r.logger.Info("invoices.insert.ok", "invoice_id", id.Hex(), "invoice_file", inv.InvoiceFile)
	return id.Hex(), nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) Lookup[*entity.Invoice] {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Fault[*entity.Invoice](common.NewAppError("INVALID_ID", "invalid invoice ID format", common.ErrInvalidInput))
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *invoiceRepository) FindByField(ctx context.Context, field, value string) Lookup[*entity.Invoice] {
	return r.findOne(ctx, bson.M{field: value})
}

func (r *invoiceRepository) findOne(ctx context.Context, filter bson.M) Lookup[*entity.Invoice] {
	var inv entity.Invoice
	err := r.coll.FindOne(ctx, filter).Decode(&inv)
	switch {
	case err == nil:
		return Found(&inv)
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound[*entity.Invoice]()
	default:
		r.logger.Error("invoices.find_one.failed", "filter", filter, "error", err)
		return Fault[*entity.Invoice](common.WrapError(err, "find invoice"))
	}
}

func (r *invoiceRepository) List(ctx context.Context) ([]*entity.Invoice, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		r.logger.Error("invoices.list.failed", "error", err)
		return nil, common.WrapError(err, "list invoices")
	}
	defer func() {
		_ = cur.Close(ctx)
	}()

	var out []*entity.Invoice
	if err := cur.All(ctx, &out); err != nil {
		return nil, common.WrapError(err, "decode invoices")
	}
	return out, nil
}

func (r *invoiceRepository) Update(ctx context.Context, id string, inv *entity.Invoice) Lookup[*entity.Invoice] {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Fault[*entity.Invoice](common.NewAppError("INVALID_ID", "invalid invoice ID format", common.ErrInvalidInput))
	}

	now := time.Now().UTC()
	inv.ID = oid
	inv.UpdatedAt = &now

	after := options.After
	var updated entity.Invoice
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": inv},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&updated)
	switch {
	case err == nil:
		r.logger.Info("invoices.update.ok", "invoice_id", id)
		return Found(&updated)
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound[*entity.Invoice]()
	default:
		r.logger.Error("invoices.update.failed", "invoice_id", id, "error", err)
		return Fault[*entity.Invoice](common.WrapError(err, "update invoice"))
	}
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) Lookup[*entity.Invoice] {
	existing := r.GetByID(ctx, id)
	if existing.Status != LookupFound {
		return existing
	}

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": existing.Record.ID}); err != nil {
		r.logger.Error("invoices.delete.failed", "invoice_id", id, "error", err)
		return Fault[*entity.Invoice](common.WrapError(err, "delete invoice"))
	}
	r.logger.Info("invoices.delete.ok", "invoice_id", id)
	return existing
}
