// Package storage uploads user media (avatars, cover images) to an
// object store and returns the public URL to persist on the account.
package storage

import (
	"context"
	"io"
)

// Uploader stores a binary asset under key and returns its public URL.
// Handlers depend on this interface so tests can substitute a fake.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}
