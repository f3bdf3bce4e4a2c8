package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repodeck/internal/application"
	"github.com/ericfisherdev/repodeck/internal/domain/model"
	"github.com/ericfisherdev/repodeck/internal/domain/port/driven"
)

func newCredentialFixture(store driven.CredentialStore) (*application.CredentialService, *application.ClientProvider) {
	provider := application.NewClientProvider(nil, nil, "")
	factory := func(_ string) (driven.GitHubClient, driven.GitHubWriter) {
		return &mockGitHubClient{}, &mockGitHubWriter{}
	}
	validate := func(_ context.Context, _ string) (string, error) {
		return "octocat", nil
	}
	svc := application.NewCredentialService(store, provider, nil, factory, validate)
	return svc, provider
}

func TestCredentialGetNotConfigured(t *testing.T) {
	svc, _ := newCredentialFixture(newMockCredentialStore())

	_, _, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, model.ErrNotConfigured)
}

func TestCredentialSetValidatesAndSwapsClient(t *testing.T) {
	store := newMockCredentialStore()
	svc, provider := newCredentialFixture(store)

	require.False(t, provider.HasClient())
	require.NoError(t, svc.Set(context.Background(), "typed-name", "ghp_secret"))

	// The authenticated login wins over what the user typed.
	username, token, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", username)
	assert.Equal(t, "ghp_secret", token)

	assert.True(t, provider.HasClient())
	assert.Equal(t, "octocat", provider.Username())
}

func TestCredentialSetRejectsInvalidToken(t *testing.T) {
	store := newMockCredentialStore()
	provider := application.NewClientProvider(nil, nil, "")
	factory := func(_ string) (driven.GitHubClient, driven.GitHubWriter) {
		return &mockGitHubClient{}, &mockGitHubWriter{}
	}
	validate := func(_ context.Context, _ string) (string, error) {
		return "", model.ErrUnauthenticated
	}
	svc := application.NewCredentialService(store, provider, nil, factory, validate)

	err := svc.Set(context.Background(), "octocat", "bad-token")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.Empty(t, store.values, "invalid token must not be persisted")
	assert.False(t, provider.HasClient())
}

func TestCredentialSetRequiresToken(t *testing.T) {
	svc, _ := newCredentialFixture(newMockCredentialStore())
	assert.Error(t, svc.Set(context.Background(), "octocat", ""))
}

func TestCredentialClearDropsClient(t *testing.T) {
	store := newMockCredentialStore()
	svc, provider := newCredentialFixture(store)

	require.NoError(t, svc.Set(context.Background(), "octocat", "ghp_secret"))
	require.True(t, provider.HasClient())

	require.NoError(t, svc.Clear(context.Background()))
	assert.False(t, provider.HasClient())

	_, _, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, model.ErrNotConfigured)
}

func TestCredentialStorageFailureWrapped(t *testing.T) {
	store := newMockCredentialStore()
	store.getErr = errors.New("disk on fire")
	svc, _ := newCredentialFixture(store)

	_, _, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, model.ErrStorageFailure)
}

func TestCredentialEncryptionKeyErrorPassesThrough(t *testing.T) {
	store := newMockCredentialStore()
	store.setErr = driven.ErrEncryptionKeyNotSet
	svc, _ := newCredentialFixture(store)

	err := svc.Set(context.Background(), "octocat", "ghp_secret")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
	assert.NotErrorIs(t, err, model.ErrStorageFailure)
}
