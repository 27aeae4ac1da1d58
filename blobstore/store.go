// Package blobstore abstracts where snapshot blobs live: in memory, on
// the local file system, or in S3-compatible object storage.
package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store reads and writes whole, immutable blobs by name. Sketch
// snapshots are small, so the interface trades streaming for simplicity.
type Store interface {
	// Put writes a blob atomically, replacing any previous blob of the
	// same name.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the contents of a blob.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
