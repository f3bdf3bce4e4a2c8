package sqlite

import (
	"context"
	"sync"

	"github.com/ericfisherdev/repodeck/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*MemoryCredentialStore)(nil)

// MemoryCredentialStore is a process-lifetime CredentialStore used when the
// user opts out of persistent storage (no secret key configured). Values are
// lost on exit.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]map[string]string
}

// NewMemoryCredentialStore creates an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]map[string]string)}
}

// Set stores or replaces the credential identified by (service, key).
func (s *MemoryCredentialStore) Set(_ context.Context, service, key, plaintext string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds[service] == nil {
		s.creds[service] = make(map[string]string)
	}
	s.creds[service][key] = plaintext
	return nil
}

// Get retrieves the credential for (service, key). Returns ("", nil) if absent.
func (s *MemoryCredentialStore) Get(_ context.Context, service, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds[service][key], nil
}

// Delete removes all credentials for the given service.
func (s *MemoryCredentialStore) Delete(_ context.Context, service string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, service)
	return nil
}
