package driven

import (
	"context"
	"errors"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// REPODECK_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set REPODECK_SECRET_KEY")

// CredentialStore defines the driven port for secure credential persistence.
// The adapter layer is responsible for encryption/decryption; this interface
// operates on plaintext values at the domain boundary. Values never appear in
// logs or diagnostics.
type CredentialStore interface {
	// Set stores or replaces the credential identified by (service, key).
	Set(ctx context.Context, service, key, plaintext string) error

	// Get retrieves the plaintext credential for (service, key).
	// Returns ("", nil) if no credential exists.
	Get(ctx context.Context, service, key string) (string, error)

	// Delete removes all credentials for the given service.
	Delete(ctx context.Context, service string) error
}
