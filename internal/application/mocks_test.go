package application_test

import (
	"context"
	"sync"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// --- Mock implementations shared across the application tests ---

type mockGitHubClient struct {
	mu sync.Mutex

	fetchPRs     func(ctx context.Context, repo model.RepositoryContext) ([]model.PullRequest, error)
	fetchPR      func(ctx context.Context, repo model.RepositoryContext, number int) (*model.PullRequest, error)
	fetchIssues  func(ctx context.Context, repo model.RepositoryContext) ([]model.Issue, error)
	fetchIssue   func(ctx context.Context, repo model.RepositoryContext, number int) (*model.Issue, error)
	fetchCommits func(ctx context.Context, repo model.RepositoryContext) ([]model.CommitSummary, error)

	prCalls     int
	issueCalls  int
	commitCalls int
}

func (m *mockGitHubClient) FetchPullRequests(ctx context.Context, repo model.RepositoryContext) ([]model.PullRequest, error) {
	m.mu.Lock()
	m.prCalls++
	m.mu.Unlock()
	if m.fetchPRs == nil {
		return nil, nil
	}
	return m.fetchPRs(ctx, repo)
}

func (m *mockGitHubClient) FetchPullRequest(ctx context.Context, repo model.RepositoryContext, number int) (*model.PullRequest, error) {
	if m.fetchPR == nil {
		return &model.PullRequest{Number: number, State: model.EntityStateOpen}, nil
	}
	return m.fetchPR(ctx, repo, number)
}

func (m *mockGitHubClient) FetchIssues(ctx context.Context, repo model.RepositoryContext) ([]model.Issue, error) {
	m.mu.Lock()
	m.issueCalls++
	m.mu.Unlock()
	if m.fetchIssues == nil {
		return nil, nil
	}
	return m.fetchIssues(ctx, repo)
}

func (m *mockGitHubClient) FetchIssue(ctx context.Context, repo model.RepositoryContext, number int) (*model.Issue, error) {
	if m.fetchIssue == nil {
		return &model.Issue{Number: number, State: model.EntityStateOpen}, nil
	}
	return m.fetchIssue(ctx, repo, number)
}

func (m *mockGitHubClient) FetchCommits(ctx context.Context, repo model.RepositoryContext) ([]model.CommitSummary, error) {
	m.mu.Lock()
	m.commitCalls++
	m.mu.Unlock()
	if m.fetchCommits == nil {
		return nil, nil
	}
	return m.fetchCommits(ctx, repo)
}

func (m *mockGitHubClient) FetchComments(_ context.Context, _ model.RepositoryContext, _ model.EntityRef) ([]model.Comment, error) {
	return nil, nil
}

type mockGitHubWriter struct {
	mu sync.Mutex

	submitReview  func(ctx context.Context, repo model.RepositoryContext, prNumber int, event, body string) error
	mergePR       func(ctx context.Context, repo model.RepositoryContext, prNumber int, method string) error
	createComment func(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, body string) (*model.Comment, error)
	setState      func(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, state model.EntityState) error
	validateToken func(ctx context.Context, token string) (string, error)

	reviewCalls int
	mergeCalls  int
	stateCalls  int
}

func (m *mockGitHubWriter) SubmitReview(ctx context.Context, repo model.RepositoryContext, prNumber int, event, body string) error {
	m.mu.Lock()
	m.reviewCalls++
	m.mu.Unlock()
	if m.submitReview == nil {
		return nil
	}
	return m.submitReview(ctx, repo, prNumber, event, body)
}

func (m *mockGitHubWriter) MergePullRequest(ctx context.Context, repo model.RepositoryContext, prNumber int, method string) error {
	m.mu.Lock()
	m.mergeCalls++
	m.mu.Unlock()
	if m.mergePR == nil {
		return nil
	}
	return m.mergePR(ctx, repo, prNumber, method)
}

func (m *mockGitHubWriter) CreateComment(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, body string) (*model.Comment, error) {
	if m.createComment == nil {
		return &model.Comment{ID: 1, Parent: ref, Body: body}, nil
	}
	return m.createComment(ctx, repo, ref, body)
}

func (m *mockGitHubWriter) SetState(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, state model.EntityState) error {
	m.mu.Lock()
	m.stateCalls++
	m.mu.Unlock()
	if m.setState == nil {
		return nil
	}
	return m.setState(ctx, repo, ref, state)
}

func (m *mockGitHubWriter) CreateReaction(_ context.Context, _ model.RepositoryContext, _ model.EntityRef, _ model.ReactionTarget, _ string) error {
	return nil
}

func (m *mockGitHubWriter) ValidateToken(ctx context.Context, token string) (string, error) {
	if m.validateToken == nil {
		return "testuser", nil
	}
	return m.validateToken(ctx, token)
}

type mockCredentialStore struct {
	mu     sync.Mutex
	values map[string]string // "service/key" -> plaintext
	setErr error
	getErr error
	delErr error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{values: make(map[string]string)}
}

func (m *mockCredentialStore) Set(_ context.Context, service, key, plaintext string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[service+"/"+key] = plaintext
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, service, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[service+"/"+key], nil
}

func (m *mockCredentialStore) Delete(_ context.Context, service string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.values {
		if len(k) > len(service) && k[:len(service)+1] == service+"/" {
			delete(m.values, k)
		}
	}
	return nil
}
