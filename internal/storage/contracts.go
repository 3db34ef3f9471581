package storage

import "context"

// ObjectStorage is the capability the pipeline needs from a blob store:
// upload bytes under a key and get back a durable, addressable URL.
type ObjectStorage interface {
	Upload(ctx context.Context, content []byte, key, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}
