// Package storage keeps uploaded component HTML in a local directory or in MinIO/S3.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"toolbox_back/config"
)

// HTMLContentType is the content type every component file is stored and served with.
const HTMLContentType = "text/html; charset=utf-8"

var (
	ErrBlobNotFound = errors.New("storage: blob not found")
	ErrInvalidName  = errors.New("storage: invalid blob name")
)

// BlobInfo describes one stored file.
type BlobInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// BlobStore is a flat namespace of named files.
type BlobStore interface {
	// Put writes r under name, replacing any previous content.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Open returns the content and its size, or ErrBlobNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	// Remove deletes name. Removing a missing blob is not an error.
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]BlobInfo, error)
}

// NewFromConfig returns the object store when the MinIO settings are complete and the local
// directory store otherwise.
func NewFromConfig(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	if cfg.Minio.Enabled() {
		store, err := NewMinioStore(ctx, cfg.Minio)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// validName rejects names that could escape the store's namespace.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r == 0 {
			return false
		}
	}
	return true
}
