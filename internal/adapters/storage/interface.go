package storage

import (
	"context"
	"time"
)

// FileMetadata represents metadata about a stored file.
type FileMetadata struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ListOptions provides options for listing files.
type ListOptions struct {
	Prefix     string `json:"prefix,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
	Marker     string `json:"marker,omitempty"`
}

// ListResult represents the result of a list operation.
type ListResult struct {
	Files       []FileMetadata `json:"files"`
	NextMarker  string         `json:"next_marker,omitempty"`
	IsTruncated bool           `json:"is_truncated"`
}

// StoreOptions provides options for storing files.
type StoreOptions struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Overwrite   bool              `json:"overwrite,omitempty"`
}

// FileStorage abstracts file operations over the local filesystem, S3, or an
// in-memory mock. Handlers depend on this interface only; the factory picks
// the implementation from configuration.
type FileStorage interface {
	// Store saves a file under the given key.
	Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error

	// Retrieve gets a file by its storage key.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes a file by its storage key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a file exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetMetadata returns metadata for a file.
	GetMetadata(ctx context.Context, key string) (*FileMetadata, error)

	// List returns files matching the given options.
	List(ctx context.Context, opts *ListOptions) (*ListResult, error)

	// PresignURL creates a temporary access URL for a file. For local
	// storage this is a plain URL under the configured base URL.
	PresignURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Close cleans up any resources used by the implementation.
	Close() error
}
