// Package application contains use-case orchestration services.
package application

import (
	"sync"

	"github.com/ericfisherdev/repodeck/internal/domain/port/driven"
)

// ClientProvider enables runtime hot-swap of the GitHub client. It holds a
// mutex-protected reference to the current read and write ports plus the
// associated username, allowing credential updates to take effect without
// restarting the application. Every API call re-resolves the client through
// the provider, so token rotation is picked up immediately.
type ClientProvider struct {
	mu       sync.RWMutex
	client   driven.GitHubClient
	writer   driven.GitHubWriter
	username string
}

// NewClientProvider creates a new provider with the given initial ports.
// client and writer may be nil if no credentials are available at startup.
func NewClientProvider(client driven.GitHubClient, writer driven.GitHubWriter, username string) *ClientProvider {
	return &ClientProvider{
		client:   client,
		writer:   writer,
		username: username,
	}
}

// Client returns the current read port. Callers must check for nil if the
// provider was created without initial credentials.
func (p *ClientProvider) Client() driven.GitHubClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// Writer returns the current write port. Callers must check for nil.
func (p *ClientProvider) Writer() driven.GitHubWriter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.writer
}

// Username returns the GitHub username associated with the current client.
func (p *ClientProvider) Username() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.username
}

// Replace swaps the current ports and username. The next caller of Client()
// or Writer() receives the new values.
func (p *ClientProvider) Replace(client driven.GitHubClient, writer driven.GitHubWriter, username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = client
	p.writer = writer
	p.username = username
}

// HasClient returns true if a non-nil client is currently held.
func (p *ClientProvider) HasClient() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}
