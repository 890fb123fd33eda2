package tokenstore

import (
	"context"
	"errors"
)

// Store persists a single credential.
type Store interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, credential string) error
}

var (
	// ErrNotFound is returned by Read when no credential is stored.
	ErrNotFound = errors.New("tokenstore: credential not found")
	// ErrReadOnly is returned by Write on stores that cannot be written.
	ErrReadOnly = errors.New("tokenstore: store is read-only")
)
