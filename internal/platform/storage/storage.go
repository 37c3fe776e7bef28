package storage

import (
	"context"
	"io"
)

// BlobStore is the object-storage boundary for uploaded PDFs. The service
// layer decides whether a call is permitted; this layer only moves bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
