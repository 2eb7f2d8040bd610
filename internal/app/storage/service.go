package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the archive bucket.
type ServiceConfig struct {
	BucketName      string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// ArchiveService is the solution archive: accepted submissions are stored
// under per-room keys and exposed to participants via short-lived
// presigned URLs once the battle completes.
type ArchiveService interface {
	// Put stores an object under the given key.
	Put(ctx context.Context, key string, contentType string, body []byte) error

	// PresignDownload generates a pre-signed URL for downloading a stored object.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Exists reports whether an object is stored under the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object stored under the given key.
	Delete(ctx context.Context, key string) error
}

// NewArchiveService is the factory function for ArchiveService.
// It initializes and returns a concrete implementation based on the provided configuration.
func NewArchiveService(cfg ServiceConfig) (ArchiveService, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(cfg)
}
