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

// RunAccountingStore persists the batch bookkeeping records: runs, per-file
// logs and per-batch statistics. No business logic lives here.
type RunAccountingStore interface {
	InsertRun(ctx context.Context, run *entity.ProcessingRun) (string, error)
	InsertLog(ctx context.Context, log *entity.ProcessingLog) (string, error)
	InsertStatistics(ctx context.Context, stats *entity.StatisticsProcess) (string, error)

	GetRun(ctx context.Context, id string) Lookup[*entity.ProcessingRun]
	ListRecentRuns(ctx context.Context, limit int64) ([]*entity.ProcessingRun, error)
	ListLogs(ctx context.Context) ([]*entity.ProcessingLog, error)
	ListStatistics(ctx context.Context) ([]*entity.StatisticsProcess, error)
}

type accountingStore struct {
	runs   *mongo.Collection
	logs   *mongo.Collection
	stats  *mongo.Collection
	logger *slog.Logger
}

func NewRunAccountingStore(db *mongo.Database, logger *slog.Logger) RunAccountingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountingStore{
		runs:   db.Collection(CollRuns),
		logs:   db.Collection(CollLogs),
		stats:  db.Collection(CollStatistics),
		logger: logger,
	}
}

func (s *accountingStore) InsertRun(ctx context.Context, run *entity.ProcessingRun) (string, error) {
	run.CreatedAt = time.Now().UTC()
	res, err := s.runs.InsertOne(ctx, run)
	if err != nil {
		s.logger.Error("accounting.insert_run.failed", "name", run.Name, "error", err)
		return "", common.WrapError(err, "insert processing run")
	}
	id := res.InsertedID.(primitive.ObjectID)
	run.ID = id
	return id.Hex(), nil
}

func (s *accountingStore) InsertLog(ctx context.Context, log *entity.ProcessingLog) (string, error) {
	res, err := s.logs.InsertOne(ctx, log)
	if err != nil {
		s.logger.Error("accounting.insert_log.failed", "invoice_filename", log.InvoiceFilename, "error", err)
		return "", common.WrapError(err, "insert processing log")
	}
	id := res.InsertedID.(primitive.ObjectID)
	log.ID = id
	return id.Hex(), nil
}

func (s *accountingStore) InsertStatistics(ctx context.Context, stats *entity.StatisticsProcess) (string, error) {
	stats.CreatedAt = time.Now().UTC()
	res, err := s.stats.InsertOne(ctx, stats)
	if err != nil {
		s.logger.Error("accounting.insert_statistics.failed", "error", err)
		return "", common.WrapError(err, "insert statistics")
	}
	id := res.InsertedID.(primitive.ObjectID)
	stats.ID = id
	return id.Hex(), nil
}

func (s *accountingStore) GetRun(ctx context.Context, id string) Lookup[*entity.ProcessingRun] {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Fault[*entity.ProcessingRun](common.NewAppError("INVALID_ID", "invalid run ID format", common.ErrInvalidInput))
	}

	var run entity.ProcessingRun
	err = s.runs.FindOne(ctx, bson.M{"_id": oid}).Decode(&run)
	switch {
	case err == nil:
		return Found(&run)
	case errors.Is(err, mongo.ErrNoDocuments):
		return NotFound[*entity.ProcessingRun]()
	default:
		s.logger.Error("accounting.get_run.failed", "run_id", id, "error", err)
		return Fault[*entity.ProcessingRun](common.WrapError(err, "find processing run"))
	}
}

func (s *accountingStore) ListRecentRuns(ctx context.Context, limit int64) ([]*entity.ProcessingRun, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := s.runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		s.logger.Error("accounting.list_runs.failed", "error", err)
		return nil, common.WrapError(err, "list processing runs")
	}
	defer func() {
		_ = cur.Close(ctx)
	}()

	var out []*entity.ProcessingRun
	if err := cur.All(ctx, &out); err != nil {
		return nil, common.WrapError(err, "decode processing runs")
	}
	return out, nil
}

func (s *accountingStore) ListLogs(ctx context.Context) ([]*entity.ProcessingLog, error) {
	cur, err := s.logs.Find(ctx, bson.M{})
	if err != nil {
		s.logger.Error("accounting.list_logs.failed", "error", err)
		return nil, common.WrapError(err, "list processing logs")
	}
	defer func() {
		_ = cur.Close(ctx)
	}()

	var out []*entity.ProcessingLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, common.WrapError(err, "decode processing logs")
	}
	return out, nil
}

func (s *accountingStore) ListStatistics(ctx context.Context) ([]*entity.StatisticsProcess, error) {
	cur, err := s.stats.Find(ctx, bson.M{})
	if err != nil {
		s.logger.Error("accounting.list_statistics.failed", "error", err)
		return nil, common.WrapError(err, "list statistics")
	}
	defer func() {
		_ = cur.Close(ctx)
	}()

	var out []*entity.StatisticsProcess
	if err := cur.All(ctx, &out); err != nil {
		return nil, common.WrapError(err, "decode statistics")
	}
	return out, nil
}
