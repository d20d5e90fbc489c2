package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockFileStorage is an in-memory FileStorage implementation for tests.
type MockFileStorage struct {
	mu    sync.RWMutex
	files map[string]*mockFile

	// FailNext, when set, makes the next operation fail with the given
	// error. Used to exercise retry and error-mapping paths.
	FailNext error
}

type mockFile struct {
	data         []byte
	metadata     map[string]string
	contentType  string
	lastModified time.Time
	etag         string
}

// NewMockFileStorage creates an empty MockFileStorage.
func NewMockFileStorage() *MockFileStorage {
	return &MockFileStorage{files: make(map[string]*mockFile)}
}

func (m *MockFileStorage) failNext(op, key string) error {
	if m.FailNext == nil {
		return nil
	}
	err := m.FailNext
	m.FailNext = nil
	return NewStorageError(op, key, err, IsRetryable(err))
}

// Store implements FileStorage.Store.
func (m *MockFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if key == "" {
		return NewStorageError("Store", key, ErrInvalidKey, false)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext("Store", key); err != nil {
		return err
	}

	if opts != nil && !opts.Overwrite {
		if _, exists := m.files[key]; exists {
			return NewStorageError("Store", key, ErrFileAlreadyExists, false)
		}
	}

	contentType := "application/octet-stream"
	if opts != nil && opts.ContentType != "" {
		contentType = opts.ContentType
	} else if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		contentType = ct
	}

	var metadata map[string]string
	if opts != nil && opts.Metadata != nil {
		metadata = make(map[string]string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			metadata[k] = v
		}
	}

	now := time.Now()
	m.files[key] = &mockFile{
		data:         append([]byte(nil), data...),
		metadata:     metadata,
		contentType:  contentType,
		lastModified: now,
		etag:         fmt.Sprintf("%d-%d", len(data), now.Unix()),
	}
	return nil
}

// Retrieve implements FileStorage.Retrieve.
func (m *MockFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, NewStorageError("Retrieve", key, ErrInvalidKey, false)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext("Retrieve", key); err != nil {
		return nil, err
	}

	file, exists := m.files[key]
	if !exists {
		return nil, NewStorageError("Retrieve", key, ErrFileNotFound, false)
	}
	return append([]byte(nil), file.data...), nil
}

// Delete implements FileStorage.Delete.
func (m *MockFileStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return NewStorageError("Delete", key, ErrInvalidKey, false)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext("Delete", key); err != nil {
		return err
	}

	if _, exists := m.files[key]; !exists {
		return NewStorageError("Delete", key, ErrFileNotFound, false)
	}
	delete(m.files, key)
	return nil
}

// Exists implements FileStorage.Exists.
func (m *MockFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, NewStorageError("Exists", key, ErrInvalidKey, false)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.files[key]
	return exists, nil
}

// GetMetadata implements FileStorage.GetMetadata.
func (m *MockFileStorage) GetMetadata(ctx context.Context, key string) (*FileMetadata, error) {
	if key == "" {
		return nil, NewStorageError("GetMetadata", key, ErrInvalidKey, false)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	file, exists := m.files[key]
	if !exists {
		return nil, NewStorageError("GetMetadata", key, ErrFileNotFound, false)
	}

	var metadata map[string]string
	if file.metadata != nil {
		metadata = make(map[string]string, len(file.metadata))
		for k, v := range file.metadata {
			metadata[k] = v
		}
	}

	return &FileMetadata{
		Key:          key,
		Size:         int64(len(file.data)),
		ContentType:  file.contentType,
		LastModified: file.lastModified,
		ETag:         file.etag,
		Metadata:     metadata,
	}, nil
}

// List implements FileStorage.List.
func (m *MockFileStorage) List(ctx context.Context, opts *ListOptions) (*ListResult, error) {
	if opts == nil {
		opts = &ListOptions{}
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 1000
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.files {
		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		if opts.Marker != "" && key <= opts.Marker {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	truncated := len(keys) > maxResults
	if truncated {
		keys = keys[:maxResults]
	}

	files := make([]FileMetadata, 0, len(keys))
	for _, key := range keys {
		file := m.files[key]
		files = append(files, FileMetadata{
			Key:          key,
			Size:         int64(len(file.data)),
			ContentType:  file.contentType,
			LastModified: file.lastModified,
			ETag:         file.etag,
		})
	}

	result := &ListResult{Files: files, IsTruncated: truncated}
	if truncated && len(files) > 0 {
		result.NextMarker = files[len(files)-1].Key
	}
	return result, nil
}

// PresignURL implements FileStorage.PresignURL.
func (m *MockFileStorage) PresignURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", NewStorageError("PresignURL", key, ErrInvalidKey, false)
	}

	exists, err := m.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", NewStorageError("PresignURL", key, ErrFileNotFound, false)
	}
	return fmt.Sprintf("mock://storage/%s?expires=%d", key, time.Now().Add(expiry).Unix()), nil
}

// Close implements FileStorage.Close.
func (m *MockFileStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string]*mockFile)
	return nil
}
