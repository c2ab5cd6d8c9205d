package document

import (
	"context"
	"time"
)

// DocumentStore abstracts the object store that holds rendered PDFs.
// Keys are opaque to the caller; implementations own prefixing and
// layout inside the backing store.
type DocumentStore interface {
	// Put stores a rendered artifact under the given key
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get retrieves a stored artifact
	Get(ctx context.Context, key string) ([]byte, error)

	// PresignDownload returns a time-limited URL for direct download
	// along with its expiry
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)

	// Delete removes a stored artifact
	Delete(ctx context.Context, key string) error
}
