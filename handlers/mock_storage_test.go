package handlers

import (
	"context"
	"fmt"
	"io"
)

type mockStorage struct {
	UploadImageFn   func(r io.Reader, folder, filename, contentType string) (string, error)
	DeleteURLFn     func(imageURL string) error
	DeleteURLCalls  []string
	Uploads         []string
	UploadCallCount int
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		DeleteURLCalls: []string{},
	}
}

func (m *mockStorage) UploadImage(_ context.Context, r io.Reader, folder, filename, contentType string) (string, error) {
	m.UploadCallCount++
	if m.UploadImageFn != nil {
		return m.UploadImageFn(r, folder, filename, contentType)
	}
	m.Uploads = append(m.Uploads, readAll(r))
	return fmt.Sprintf("https://storage.googleapis.com/test-bucket/%s/%d_%s", folder, m.UploadCallCount, filename), nil
}

func (m *mockStorage) DeleteURL(_ context.Context, imageURL string) error {
	m.DeleteURLCalls = append(m.DeleteURLCalls, imageURL)
	if m.DeleteURLFn != nil {
		return m.DeleteURLFn(imageURL)
	}
	return nil
}

func (m *mockStorage) ImportRemoteImage(_ context.Context, imageURL, folder string) (string, error) {
	m.UploadCallCount++
	return "https://storage.googleapis.com/test-bucket/" + folder + "/imported.jpg", nil
}
