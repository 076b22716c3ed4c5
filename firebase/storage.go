package firebase

import (
	"context"
	"errors"
	"io"
)

// ErrStorageDisabled is returned by DisabledStorage for every operation.
var ErrStorageDisabled = errors.New("image storage is not configured")

// StorageClient abstracts image storage for dependency injection and testing.
type StorageClient interface {
	UploadImage(ctx context.Context, r io.Reader, folder, filename, contentType string) (string, error)
	DeleteURL(ctx context.Context, imageURL string) error
	ImportRemoteImage(ctx context.Context, imageURL, folder string) (string, error)
}

// DisabledStorage stands in when no bucket is configured so the rest of the
// API keeps working.
type DisabledStorage struct{}

func (DisabledStorage) UploadImage(context.Context, io.Reader, string, string, string) (string, error) {
	return "", ErrStorageDisabled
}

func (DisabledStorage) DeleteURL(context.Context, string) error {
	return ErrStorageDisabled
}

func (DisabledStorage) ImportRemoteImage(context.Context, string, string) (string, error) {
	return "", ErrStorageDisabled
}

var (
	_ StorageClient = (*Storage)(nil)
	_ StorageClient = DisabledStorage{}
)
