package storage

import (
	"context"
	"errors"
	"io"
)

// ErrUploadsDisabled is returned when the media storage block is not
// configured.
var ErrUploadsDisabled = errors.New("media storage is not configured")

type disabledUploader struct{}

// NewDisabledUploader returns a FileUploader that rejects every upload.
// Used when the R2 environment block is absent so the rest of the app
// still runs.
func NewDisabledUploader() FileUploader {
	return disabledUploader{}
}

func (disabledUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	return nil, ErrUploadsDisabled
}

func (disabledUploader) Delete(ctx context.Context, key string) error {
	return ErrUploadsDisabled
}

func (disabledUploader) GetPublicURL(key string) string {
	return ""
}
