// Package storage abstracts attachment blob storage. The filesystem backend
// mirrors the original uploads directory; the S3 backend targets any
// S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// BlobStore stores and retrieves attachment content by storage name. Names
// are opaque to the store; uniqueness is the caller's concern.
type BlobStore interface {
	// Save durably writes data under name. The blob must be readable once
	// Save returns.
	Save(ctx context.Context, name string, data []byte) error

	// Open returns the blob content, or common.ErrNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// NewStorageName derives a unique storage name from a high-resolution
// timestamp and the client-supplied display name. The display name is reduced
// to its base path component so a crafted name cannot escape the store.
func NewStorageName(originalName string) string {
	base := filepath.Base(strings.TrimSpace(originalName))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "file"
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), base)
}
