package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrStorageUnavailable is returned when the blob store cannot serve a request.
var ErrStorageUnavailable = errors.New("storage unavailable")

// SignedUpload is a pre-authorized upload slot for a CV file.
type SignedUpload struct {
	UploadURL string        `json:"upload_url"`
	Key       string        `json:"key"`
	PublicURL string        `json:"public_url"`
	ExpiresIn time.Duration `json:"expires_in"`
}

// ObjectStorage defines the interface for blob store operations.
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// SignedUploadURL creates a pre-authorized upload URL for the key
	SignedUploadURL(ctx context.Context, key string, ttl time.Duration) (*SignedUpload, error)

	// GetURL returns the public URL for accessing an object
	GetURL(key string) string

	// KeyFromURL reduces a public object URL back to its bucket-relative key
	KeyFromURL(pathOrURL string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}

// DownloadBytes reads a whole object into memory. CV files are small; the
// extractor wants a byte slice.
func DownloadBytes(ctx context.Context, s ObjectStorage, key string) ([]byte, error) {
	reader, err := s.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
