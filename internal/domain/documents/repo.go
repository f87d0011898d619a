package documents

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("document not found")

type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Document, int, error)
}

// BlobStore keeps document payloads outside the database.
type BlobStore interface {
	// Save writes the payload and returns the opaque stored name.
	Save(r io.Reader, ext string) (string, int64, error)
	Open(storedName string) (io.ReadCloser, error)
	Remove(storedName string) error
}
