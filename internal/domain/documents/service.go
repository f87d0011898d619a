package documents

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxDocumentSize caps uploads at 10 MiB.
const maxDocumentSize = 10 << 20

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

type Service struct {
	docs  DocumentRepository
	blobs BlobStore
}

func NewService(docs DocumentRepository, blobs BlobStore) *Service {
	return &Service{docs: docs, blobs: blobs}
}

// Upload stores the payload under an opaque name and records its metadata.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, fileName, contentType string, size int64, r io.Reader) (*Document, error) {
	if fileName == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if !allowedContentTypes[contentType] {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
	if size > maxDocumentSize {
		return nil, fmt.Errorf("file exceeds the %d MB limit", maxDocumentSize>>20)
	}

	storedName, written, err := s.blobs.Save(io.LimitReader(r, maxDocumentSize+1), filepath.Ext(fileName))
	if err != nil {
		return nil, fmt.Errorf("store payload: %w", err)
	}
	if written > maxDocumentSize {
		_ = s.blobs.Remove(storedName)
		return nil, fmt.Errorf("file exceeds the %d MB limit", maxDocumentSize>>20)
	}

	d := &Document{
		OwnerID:     ownerID,
		FileName:    filepath.Base(fileName),
		StoredName:  storedName,
		ContentType: contentType,
		SizeBytes:   written,
	}
	if err := s.docs.Create(ctx, d); err != nil {
		_ = s.blobs.Remove(storedName)
		return nil, fmt.Errorf("record document: %w", err)
	}

	log.Info().Str("document_id", d.ID.String()).Str("owner_id", ownerID.String()).
		Int64("size", written).Msg("document uploaded")
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.docs.GetByID(ctx, id)
}

// Open returns the document metadata and a reader over its payload.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (*Document, io.ReadCloser, error) {
	d, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(d.StoredName)
	if err != nil {
		return nil, nil, fmt.Errorf("open payload: %w", err)
	}
	return d, rc, nil
}

// Delete removes the metadata row first; an orphaned blob is preferable to a
// row pointing at nothing.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.blobs.Remove(d.StoredName); err != nil {
		log.Warn().Err(err).Str("stored_name", d.StoredName).Msg("orphaned blob left behind")
	}
	return nil
}

func (s *Service) ListForOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	return s.docs.ListByOwner(ctx, ownerID, limit, offset)
}
