package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob: not found")

// Storage abstracts where attachment bytes live. Keys are opaque,
// slash-separated paths minted by the caller; URL turns a key into
// something a browser can fetch.
type Storage interface {
	// Put streams the blob under key, creating parent scopes as needed.
	// An existing blob under the same key is overwritten.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns a reader for the blob. Callers close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL is the public path clients use to fetch the blob.
	URL(key string) string
}
