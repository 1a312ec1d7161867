package tokenstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Read when no credential has been stored yet.
	ErrNotFound = errors.New("no stored credential")

	// ErrReadOnly is returned by Write and Delete on backends that cannot be modified.
	ErrReadOnly = errors.New("credential storage is read-only")
)

// TokenStore reads and writes credentials to persistent storage.
type TokenStore interface {
	// Read returns the stored credential. Returns ErrNotFound if nothing is stored.
	Read(ctx context.Context) (string, error)

	// Write persists the credential, replacing any previous value. Returns ErrReadOnly
	// if the backend is read-only (e.g., environment variables).
	Write(ctx context.Context, value string) error

	// Delete removes the stored credential. Deleting a missing credential is not an error.
	Delete(ctx context.Context) error
}
