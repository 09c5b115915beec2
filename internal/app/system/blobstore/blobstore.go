// internal/app/system/blobstore/blobstore.go

// Package blobstore stores uploaded files, currently member profile
// pictures. Two drivers: a local directory for development and
// single-host deployments, and S3 for everything else.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Store writes and removes uploaded blobs. Put returns the public URL
// the stored object is reachable at; handlers persist that URL on the
// member document.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// sanitizeKey rejects keys that would escape the storage root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty blob key")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}
