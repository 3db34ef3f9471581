package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	gcs "cloud.google.com/go/storage"
)

const publicBaseURL = "https://storage.googleapis.com"

// GCSStorage implements ObjectStorage over a Google Cloud Storage bucket.
type GCSStorage struct {
	client *gcs.Client
	bucket string
	logger *slog.Logger
}

func NewGCSStorage(client *gcs.Client, bucket string, logger *slog.Logger) *GCSStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &GCSStorage{client: client, bucket: bucket, logger: logger}
}

// Upload writes content under key and returns the object's public URL.
func (s *GCSStorage) Upload(ctx context.Context, content []byte, key, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(content)); err != nil {
		_ = w.Close()
		s.logger.Error("storage.upload.write_error", "bucket", s.bucket, "key", key, "error", err)
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error("storage.upload.close_error", "bucket", s.bucket, "key", key, "error", err)
		return "", fmt.Errorf("finalize object %s: %w", key, err)
	}

	url := fmt.Sprintf("%s/%s/%s", publicBaseURL, s.bucket, key)
	s.logger.Debug("storage.upload.ok", "key", key, "bytes", len(content), "url", url)
	return url, nil
}

// Delete removes the object a previously returned URL points at.
func (s *GCSStorage) Delete(ctx context.Context, url string) error {
	key, err := s.keyFromURL(url)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		s.logger.Error("storage.delete.error", "bucket", s.bucket, "key", key, "error", err)
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	s.logger.Debug("storage.delete.ok", "key", key)
	return nil
}

func (s *GCSStorage) keyFromURL(url string) (string, error) {
	prefix := fmt.Sprintf("%s/%s/", publicBaseURL, s.bucket)
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q does not belong to bucket %s", url, s.bucket)
	}
	return strings.TrimPrefix(url, prefix), nil
}
