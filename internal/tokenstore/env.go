package tokenstore

import (
	"context"
	"fmt"
	"os"
)

// EnvStore provides read-only access to credentials stored in environment variables.
// Suitable for pre-provisioned sessions in CI or containers, not for interactive login.
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements TokenStore
var _ TokenStore = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
// Returns error if the variable name is empty.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Read returns the credential from the environment variable. Returns ErrNotFound if unset or empty.
func (e *EnvStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	value := os.Getenv(e.envKey)
	if value == "" {
		return "", fmt.Errorf("environment variable %s: %w", e.envKey, ErrNotFound)
	}
	return value, nil
}

// Write is not supported for environment variables (they are read-only).
func (e *EnvStore) Write(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return ErrReadOnly
}

// Delete is not supported for environment variables (they are read-only).
func (e *EnvStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return ErrReadOnly
}
