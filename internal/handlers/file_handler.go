package handlers

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"serverless-api-starter/internal/adapters/storage"
	"serverless-api-starter/internal/apierr"
	"serverless-api-starter/internal/models"
)

// presignTTL is how long generated download URLs stay valid.
const presignTTL = 15 * time.Minute

// FileHandler handles file storage HTTP requests
type FileHandler struct {
	store storage.FileStorage
}

// NewFileHandler creates a new file handler
func NewFileHandler(store storage.FileStorage) *FileHandler {
	return &FileHandler{store: store}
}

// UploadFile decodes the base64 payload and writes it to storage
func (h *FileHandler) UploadFile(c *gin.Context) (any, error) {
	var req models.FileUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		return nil, apierr.NewValidation(
			"File content must be valid base64",
			map[string]any{"key": req.Key},
		)
	}

	opts := &storage.StoreOptions{
		ContentType: req.ContentType,
		Overwrite:   true,
	}
	if err := h.store.Store(c.Request.Context(), req.Key, content, opts); err != nil {
		return nil, h.storageError(err, req.Key)
	}

	return &models.FileUploadResponse{
		Key:  req.Key,
		Size: len(content),
	}, nil
}

// ListFiles lists stored files, optionally filtered by a prefix query param
func (h *FileHandler) ListFiles(c *gin.Context) (any, error) {
	result, err := h.store.List(c.Request.Context(), &storage.ListOptions{
		Prefix: c.Query("prefix"),
	})
	if err != nil {
		return nil, h.storageError(err, "")
	}

	return gin.H{
		"files":     result.Files,
		"count":     len(result.Files),
		"truncated": result.IsTruncated,
	}, nil
}

// GetFileURL returns a time-limited download URL for a stored file
func (h *FileHandler) GetFileURL(c *gin.Context) (any, error) {
	key := c.Param("key")

	exists, err := h.store.Exists(c.Request.Context(), key)
	if err != nil {
		return nil, h.storageError(err, key)
	}
	if !exists {
		return nil, apierr.NewNotFound(
			fmt.Sprintf("File %s not found", key),
			"File",
			key,
		)
	}

	url, err := h.store.PresignURL(c.Request.Context(), key, presignTTL)
	if err != nil {
		return nil, h.storageError(err, key)
	}

	return &models.FileURLResponse{
		Key:       key,
		URL:       url,
		ExpiresIn: int(presignTTL.Seconds()),
	}, nil
}

// DeleteFile removes a stored file; deleting a missing file succeeds
func (h *FileHandler) DeleteFile(c *gin.Context) (any, error) {
	key := c.Param("key")

	if err := h.store.Delete(c.Request.Context(), key); err != nil && !storage.IsNotFound(err) {
		return nil, h.storageError(err, key)
	}

	return gin.H{"key": key, "deleted": true}, nil
}

// storageError maps storage sentinel errors onto the error taxonomy so the
// middleware renders the right status.
func (h *FileHandler) storageError(err error, key string) error {
	switch {
	case storage.IsNotFound(err):
		return apierr.NewNotFound(
			fmt.Sprintf("File %s not found", key),
			"File",
			key,
		)
	case storage.IsInvalidKey(err):
		return apierr.NewValidation(
			"Invalid file key",
			map[string]any{"key": key},
		)
	default:
		return apierr.NewExternalService("File storage is unavailable", nil)
	}
}
