package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document maps to the user_documents table. StoredName is the opaque name
// on disk; the original client filename is kept for display and download.
type Document struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	StoredName  string    `db:"stored_name" json:"-"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
