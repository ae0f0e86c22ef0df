package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// MaxBlobSize caps uploaded image size at 5 MB.
const MaxBlobSize = 5 * 1024 * 1024

// imageExtensions is the content-type allow-list for uploads.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
}

// BlobStore keeps uploaded images in the blobs table, addressed by a
// generated filename. Rows are only ever deleted explicitly by the mutation
// path that supersedes or removes the owning record.
type BlobStore struct {
	db *sql.DB
}

// NewBlobStore creates a new blob store instance
func NewBlobStore(db *sql.DB) *BlobStore {
	return &BlobStore{db: db}
}

// AllowedImageType reports whether contentType is an accepted upload type.
func AllowedImageType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// Save stores image bytes and returns the generated filename. The filename
// is random, never derived from client input.
func (s *BlobStore) Save(ctx context.Context, data []byte, contentType, ownerID string) (string, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedImageType
	}
	if len(data) > MaxBlobSize {
		return "", ErrBlobTooLarge
	}

	filename := strings.ReplaceAll(uuid.NewString(), "-", "") + ext

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO blobs (filename, content_type, owner_id, size, content) VALUES (?, ?, ?, ?, ?)",
		filename, contentType, ownerID, len(data), data)
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}
	return filename, nil
}

// Open returns the content and content type for a stored blob.
func (s *BlobStore) Open(ctx context.Context, filename string) ([]byte, string, error) {
	var content []byte
	var contentType string
	err := s.db.QueryRowContext(ctx,
		"SELECT content, content_type FROM blobs WHERE filename = ?", filename).
		Scan(&content, &contentType)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", fmt.Errorf("blob %w", ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to read blob: %w", err)
	}
	return content, contentType, nil
}

// Delete removes a stored blob. Deleting a missing or empty filename is not
// an error; every superseding mutation calls this unconditionally.
func (s *BlobStore) Delete(ctx context.Context, filename string) error {
	if filename == "" {
		return nil
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE filename = ?", filename)
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		log.WithField("filename", filename).Warn("blob already gone")
	}
	return nil
}
