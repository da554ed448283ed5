package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Backend is an in-memory implementation of the simpleblog.BlobStore
// interface, used by tests and the default server configuration.
type Backend struct {
	mu           sync.RWMutex
	blobs        map[string][]byte
	contentTypes map[string]string
}

// New creates a new in-memory storage backend
func New() simpleblog.BlobStore {
	return &Backend{
		blobs:        make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// Upload stores the blob directly
func (b *Backend) Upload(ctx context.Context, key, contentType string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.blobs[key] = data
	b.contentTypes[key] = contentType
	return nil
}

// Download opens the blob directly
func (b *Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.blobs[key]
	if !exists {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the blob
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.blobs[key]; !exists {
		return errors.New("blob not found")
	}
	delete(b.blobs, key)
	delete(b.contentTypes, key)
	return nil
}

// GetDownloadURL returns an error; the in-memory backend has no URL
// access
func (b *Backend) GetDownloadURL(ctx context.Context, key string) (string, error) {
	return "", errors.New("direct download required for memory backend")
}
