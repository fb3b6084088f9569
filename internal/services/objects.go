package services

import (
	"context"
	"errors"
	"io"
	"time"

	"CT-SIGN/internal/storage"
)

// ErrStorageDisabled is returned by operations that need object storage when
// no bucket is configured.
var ErrStorageDisabled = errors.New("object storage not configured")

// ObjectStore is the part of the GCS client the services use.
type ObjectStore interface {
	Upload(ctx context.Context, reader io.Reader, objectName, contentType string, metadata map[string]string) (*storage.UploadResult, error)
	SignedURL(objectName string, expiry time.Duration) (string, error)
}
