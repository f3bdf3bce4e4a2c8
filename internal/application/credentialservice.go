package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
	"github.com/ericfisherdev/repodeck/internal/domain/port/driven"
)

const credentialService = "github"

// ClientFactory builds GitHub read/write ports for a token. Injected so
// tests can supply fakes and the composition root can supply the real
// adapter constructor.
type ClientFactory func(token string) (driven.GitHubClient, driven.GitHubWriter)

// CredentialService is the engine-facing credential provider. It resolves
// the (username, token) pair from the store, validates new tokens against
// the API before persisting, and hot-swaps the GitHub client so rotation
// takes effect without restart. Tokens are never logged.
type CredentialService struct {
	store    driven.CredentialStore
	provider *ClientProvider
	sync     *SyncService
	factory  ClientFactory
	validate func(ctx context.Context, token string) (string, error)
}

// NewCredentialService creates a CredentialService. validate checks a token
// against the API and returns the authenticated username; pass the writer's
// ValidateToken in production.
func NewCredentialService(
	store driven.CredentialStore,
	provider *ClientProvider,
	sync *SyncService,
	factory ClientFactory,
	validate func(ctx context.Context, token string) (string, error),
) *CredentialService {
	return &CredentialService{
		store:    store,
		provider: provider,
		sync:     sync,
		factory:  factory,
		validate: validate,
	}
}

// Get resolves the stored (username, token) pair. Returns ErrNotConfigured
// when either half is missing and ErrStorageFailure when the store is
// unavailable.
func (s *CredentialService) Get(ctx context.Context) (username, token string, err error) {
	username, err = s.store.Get(ctx, credentialService, "username")
	if err != nil {
		return "", "", storageErr(err)
	}
	token, err = s.store.Get(ctx, credentialService, "token")
	if err != nil {
		return "", "", storageErr(err)
	}
	if username == "" || token == "" {
		return "", "", model.ErrNotConfigured
	}
	return username, token, nil
}

// Set validates the token against the API, persists the pair, and swaps the
// live client so the next API call uses the new credentials. Polling resumes
// if it was paused for credential problems.
func (s *CredentialService) Set(ctx context.Context, username, token string) error {
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	login, err := s.validate(ctx, token)
	if err != nil {
		return err
	}
	// The authenticated login is authoritative over what the user typed.
	if login != "" {
		username = login
	}

	if err := s.store.Set(ctx, credentialService, "username", username); err != nil {
		return storageErr(err)
	}
	if err := s.store.Set(ctx, credentialService, "token", token); err != nil {
		return storageErr(err)
	}

	client, writer := s.factory(token)
	s.provider.Replace(client, writer, username)
	slog.Info("github credentials updated", "username", username)

	if s.sync != nil {
		s.sync.Resume(ctx)
	}
	return nil
}

// Clear removes stored credentials and drops the live client. Polling will
// pause on its next cycle.
func (s *CredentialService) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, credentialService); err != nil {
		return storageErr(err)
	}
	s.provider.Replace(nil, nil, "")
	slog.Info("github credentials cleared")
	return nil
}

// storageErr tags a credential store failure with the engine sentinel while
// preserving the underlying cause. ErrEncryptionKeyNotSet passes through so
// callers can distinguish misconfiguration from outage.
func storageErr(err error) error {
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return err
	}
	return fmt.Errorf("%w: %v", model.ErrStorageFailure, err)
}
