package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore defines the interface for media object storage operations.
type FileStore interface {
	// Store persists the upload under a fresh key derived from the ref and
	// returns the stored object with its public URL.
	Store(ctx context.Context, ref ObjectRef, file Upload) (*StoredObject, error)

	// Delete removes a stored object by its key.
	Delete(ctx context.Context, key string) error
}

// ObjectRef names where a stored object belongs.
type ObjectRef struct {
	ListingID string
	FileName  string
}

// Upload holds the parameters for storing a file.
type Upload struct {
	ContentType string
	Size        int64
	Data        io.Reader
}

// StoredObject holds the result of a successful store.
type StoredObject struct {
	Key string
	URL string
}

// NewKey derives a collision-free object key from the ref, keeping the
// original file extension.
func NewKey(ref ObjectRef) string {
	return fmt.Sprintf("%s/%s%s", ref.ListingID, uuid.New().String(), filepath.Ext(ref.FileName))
}
