package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repodeck/internal/domain/port/driven"
)

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	err := repo.Set(ctx, "github", "token", "ghp_abc123")
	require.NoError(t, err)

	val, err := repo.Get(ctx, "github", "token")
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc123", val)
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	val, err := repo.Get(ctx, "github", "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	err := repo.Set(ctx, "github", "token", "old-value")
	require.NoError(t, err)

	err = repo.Set(ctx, "github", "token", "new-value")
	require.NoError(t, err)

	val, err := repo.Get(ctx, "github", "token")
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "token", "ghp_abc"))
	require.NoError(t, repo.Set(ctx, "github", "username", "testuser"))

	err := repo.Delete(ctx, "github")
	require.NoError(t, err)

	val, err := repo.Get(ctx, "github", "token")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	val, err = repo.Get(ctx, "github", "username")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_ValuesEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github", "token", "ghp_secret"))

	var raw string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = 'github' AND key = 'token'`).Scan(&raw)
	require.NoError(t, err)
	assert.NotContains(t, raw, "ghp_secret")
}

func TestCredentialRepo_NoKeyConfigured(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	err := repo.Set(ctx, "github", "token", "ghp_abc")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "github", "token")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestMemoryCredentialStore_Roundtrip(t *testing.T) {
	store := NewMemoryCredentialStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "github", "token", "ghp_mem"))

	val, err := store.Get(ctx, "github", "token")
	require.NoError(t, err)
	assert.Equal(t, "ghp_mem", val)

	require.NoError(t, store.Delete(ctx, "github"))

	val, err = store.Get(ctx, "github", "token")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}
