package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Backend is a filesystem implementation of the simpleblog.BlobStore
// interface. Content type is not stored; it is detected on read by the
// caller if needed.
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Optional URL prefix for download URLs
}

// New creates a new filesystem storage backend
func New(config Config) (simpleblog.BlobStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

// Upload writes the blob to the filesystem
func (b *Backend) Upload(ctx context.Context, key, contentType string, reader io.Reader) error {
	filePath := filepath.Join(b.baseDir, key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Download opens the blob from the filesystem
func (b *Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(b.baseDir, key))
	if os.IsNotExist(err) {
		return nil, errors.New("blob not found")
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the blob from the filesystem
func (b *Backend) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(b.baseDir, key))
	if os.IsNotExist(err) {
		return errors.New("blob not found")
	}
	return err
}

// GetDownloadURL returns a URL for downloading the blob
func (b *Backend) GetDownloadURL(ctx context.Context, key string) (string, error) {
	if b.urlPrefix == "" {
		return "", errors.New("direct download required for filesystem backend")
	}
	return fmt.Sprintf("%s/%s", b.urlPrefix, key), nil
}
