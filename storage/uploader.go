package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

const jsonContentType = "application/json"

// UploadResult describes a stored object.
type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	ETag     string `json:"etag,omitempty"`
}

// FileUploader is an object store for bracket archives.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// UploadJSON marshals v and stores it under key.
func UploadJSON(ctx context.Context, u FileUploader, key string, v interface{}) (*UploadResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return u.Upload(ctx, key, jsonContentType, bytes.NewReader(body))
}
