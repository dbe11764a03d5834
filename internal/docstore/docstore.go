// Package docstore stores rendered and signed document artifacts. The lease
// service treats it as an opaque collaborator; backends are selected by
// configuration.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound means no artifact exists for the handle
var ErrNotFound = errors.New("document not found")

// Storage stores and retrieves document artifacts by logical path
type Storage interface {
	// Store writes the bytes under the logical path and returns the handle
	// used for later retrieval
	Store(ctx context.Context, data []byte, logicalPath string) (string, error)

	// Retrieve reads the bytes for a handle returned by Store
	Retrieve(ctx context.Context, handle string) ([]byte, error)
}
