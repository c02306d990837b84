package domain

import (
	"context"
	"io"
)

// BlobWriter uploads data to object storage. The scanner only ever writes
// archives; it never reads them back.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
