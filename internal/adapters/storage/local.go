package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalFileStorage implements FileStorage on the local filesystem. It is the
// default in server mode; Lambda deployments use S3 instead.
type LocalFileStorage struct {
	basePath string
	baseURL  string
}

// NewLocalFileStorage creates a LocalFileStorage rooted at basePath. An
// optional baseURL is used for PresignURL results.
func NewLocalFileStorage(basePath string, baseURL ...string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, NewStorageError("NewLocalFileStorage", "", err, false)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStorageError("NewLocalFileStorage", "", err, false)
	}

	var url string
	if len(baseURL) > 0 {
		url = strings.TrimSuffix(baseURL[0], "/")
	}

	return &LocalFileStorage{basePath: absPath, baseURL: url}, nil
}

// Store implements FileStorage.Store.
func (l *LocalFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if err := l.validateKey(key); err != nil {
		return NewStorageError("Store", key, err, false)
	}

	filePath := l.filePath(key)

	if opts != nil && !opts.Overwrite {
		if _, err := os.Stat(filePath); err == nil {
			return NewStorageError("Store", key, ErrFileAlreadyExists, false)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return NewStorageError("Store", key, err, true)
	}

	// Write to a temp file and rename so readers never observe a partial
	// write.
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return NewStorageError("Store", key, err, true)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return NewStorageError("Store", key, err, true)
	}

	return nil
}

// Retrieve implements FileStorage.Retrieve.
func (l *LocalFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if err := l.validateKey(key); err != nil {
		return nil, NewStorageError("Retrieve", key, err, false)
	}

	data, err := os.ReadFile(l.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("Retrieve", key, ErrFileNotFound, false)
		}
		return nil, NewStorageError("Retrieve", key, err, true)
	}
	return data, nil
}

// Delete implements FileStorage.Delete.
func (l *LocalFileStorage) Delete(ctx context.Context, key string) error {
	if err := l.validateKey(key); err != nil {
		return NewStorageError("Delete", key, err, false)
	}

	if err := os.Remove(l.filePath(key)); err != nil {
		if os.IsNotExist(err) {
			return NewStorageError("Delete", key, ErrFileNotFound, false)
		}
		return NewStorageError("Delete", key, err, true)
	}
	return nil
}

// Exists implements FileStorage.Exists.
func (l *LocalFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := l.validateKey(key); err != nil {
		return false, NewStorageError("Exists", key, err, false)
	}

	_, err := os.Stat(l.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, NewStorageError("Exists", key, err, true)
	}
	return true, nil
}

// GetMetadata implements FileStorage.GetMetadata.
func (l *LocalFileStorage) GetMetadata(ctx context.Context, key string) (*FileMetadata, error) {
	if err := l.validateKey(key); err != nil {
		return nil, NewStorageError("GetMetadata", key, err, false)
	}

	info, err := os.Stat(l.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("GetMetadata", key, ErrFileNotFound, false)
		}
		return nil, NewStorageError("GetMetadata", key, err, true)
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &FileMetadata{
		Key:          key,
		Size:         info.Size(),
		ContentType:  contentType,
		LastModified: info.ModTime(),
	}, nil
}

// List implements FileStorage.List.
func (l *LocalFileStorage) List(ctx context.Context, opts *ListOptions) (*ListResult, error) {
	if opts == nil {
		opts = &ListOptions{}
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 1000
	}

	var keys []string
	err := filepath.Walk(l.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || strings.HasSuffix(path, ".tmp") {
			return err
		}
		rel, relErr := filepath.Rel(l.basePath, path)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			return nil
		}
		if opts.Marker != "" && key <= opts.Marker {
			return nil
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, NewStorageError("List", opts.Prefix, err, true)
	}

	sort.Strings(keys)
	truncated := len(keys) > maxResults
	if truncated {
		keys = keys[:maxResults]
	}

	files := make([]FileMetadata, 0, len(keys))
	for _, key := range keys {
		meta, metaErr := l.GetMetadata(ctx, key)
		if metaErr != nil {
			continue
		}
		files = append(files, *meta)
	}

	result := &ListResult{Files: files, IsTruncated: truncated}
	if truncated && len(files) > 0 {
		result.NextMarker = files[len(files)-1].Key
	}
	return result, nil
}

// PresignURL implements FileStorage.PresignURL. Local storage has no signing;
// the URL is only valid while the server is running.
func (l *LocalFileStorage) PresignURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := l.validateKey(key); err != nil {
		return "", NewStorageError("PresignURL", key, err, false)
	}

	exists, err := l.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", NewStorageError("PresignURL", key, ErrFileNotFound, false)
	}

	if l.baseURL != "" {
		return fmt.Sprintf("%s/%s", l.baseURL, key), nil
	}
	return "file://" + l.filePath(key), nil
}

// Close implements FileStorage.Close.
func (l *LocalFileStorage) Close() error {
	return nil
}

func (l *LocalFileStorage) filePath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

func (l *LocalFileStorage) validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	// Reject traversal out of the base path.
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return ErrInvalidKey
	}
	return nil
}
