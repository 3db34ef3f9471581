package repository

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names. The pipeline only ever touches single documents, so the
// store's per-document guarantees are all the locking we need.
const (
	CollInvoices      = "invoices"
	CollImageInvoices = "image_invoices"
	CollLogs          = "processing_logs"
	CollStatistics    = "statistics"
	CollRuns          = "runs"
)

type Config struct {
	URI         string
	Database    string
	DialTimeout time.Duration
}

// Open connects to the document store and returns the client plus a handle
// to the application database.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	logger.Info("connecting to document store", "database", cfg.Database)

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logger.Error("failed to connect to document store", "error", err)
		return nil, nil, err
	}

	logger.Info("successfully connected to document store")
	return client, client.Database(cfg.Database), nil
}

// Close disconnects the client gracefully.
func Close(ctx context.Context, client *mongo.Client, logger *slog.Logger) {
	logger.Info("closing document store connection")
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("failed to disconnect document store client", "error", err)
	}
}

// HealthCheck pings the primary to catch connection-string issues early.
func HealthCheck(ctx context.Context, client *mongo.Client, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging document store")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	logger.Debug("document store ping successful")
	return nil
}
