package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repodeck/internal/application"
	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// startSyncService starts the polling loop with a long interval so tests
// drive cycles through Refresh instead of the ticker.
func startSyncService(t *testing.T, client *mockGitHubClient) (*application.SyncService, *application.Cache) {
	t.Helper()

	cache := application.NewCache(testRepo())
	var provider *application.ClientProvider
	if client != nil {
		provider = application.NewClientProvider(client, &mockGitHubWriter{}, "octocat")
	} else {
		provider = application.NewClientProvider(nil, nil, "")
	}
	svc := application.NewSyncService(provider, cache, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return svc, cache
}

func TestSyncRefreshAppliesAllSlices(t *testing.T) {
	client := &mockGitHubClient{
		fetchPRs: func(_ context.Context, _ model.RepositoryContext) ([]model.PullRequest, error) {
			return []model.PullRequest{{Number: 1, State: model.EntityStateOpen}}, nil
		},
		fetchIssues: func(_ context.Context, _ model.RepositoryContext) ([]model.Issue, error) {
			return []model.Issue{{Number: 2, State: model.EntityStateOpen}}, nil
		},
		fetchCommits: func(_ context.Context, _ model.RepositoryContext) ([]model.CommitSummary, error) {
			return []model.CommitSummary{{SHA: "abc", Timestamp: time.Now()}}, nil
		},
	}
	svc, cache := startSyncService(t, client)

	require.NoError(t, svc.Refresh(context.Background()))

	snap := cache.Snapshot()
	assert.Len(t, snap.PullRequests, 1)
	assert.Len(t, snap.Issues, 1)
	assert.Len(t, snap.Commits, 1)
	assert.Equal(t, model.SyncStatusIdle, snap.SyncStatus)
	assert.Empty(t, snap.LastError)
	assert.Equal(t, 1, snap.Activity.OpenPRs)
	assert.Equal(t, 1, snap.Activity.OpenIssues)
	assert.Equal(t, 1, snap.Activity.NewCommits)
}

func TestSyncPartialFailureKeepsSuccessfulSlices(t *testing.T) {
	client := &mockGitHubClient{
		fetchPRs: func(_ context.Context, _ model.RepositoryContext) ([]model.PullRequest, error) {
			return []model.PullRequest{{Number: 1, State: model.EntityStateOpen}}, nil
		},
		fetchCommits: func(_ context.Context, _ model.RepositoryContext) ([]model.CommitSummary, error) {
			return nil, errors.New("commit fetch exploded")
		},
	}
	svc, cache := startSyncService(t, client)

	err := svc.Refresh(context.Background())
	require.Error(t, err)

	snap := cache.Snapshot()
	assert.Len(t, snap.PullRequests, 1, "successful PR fetch is kept despite the commit failure")
	assert.Equal(t, model.SyncStatusBackoff, snap.SyncStatus)
	assert.Contains(t, snap.LastError, "commit fetch exploded")
}

func TestSyncBackoffOnRepeatedFailure(t *testing.T) {
	client := &mockGitHubClient{
		fetchPRs: func(_ context.Context, _ model.RepositoryContext) ([]model.PullRequest, error) {
			return nil, model.ErrNetworkTransient
		},
	}
	svc, cache := startSyncService(t, client)

	require.Error(t, svc.Refresh(context.Background()))
	assert.Equal(t, model.SyncStatusBackoff, cache.Snapshot().SyncStatus)

	// Manual refresh bypasses backoff and, on success, clears it.
	client.mu.Lock()
	client.fetchPRs = nil
	client.mu.Unlock()
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, model.SyncStatusIdle, cache.Snapshot().SyncStatus)
	assert.Empty(t, cache.Snapshot().LastError)
}

func TestSyncPausesWhenUnauthenticated(t *testing.T) {
	client := &mockGitHubClient{
		fetchPRs: func(_ context.Context, _ model.RepositoryContext) ([]model.PullRequest, error) {
			return nil, model.ErrUnauthenticated
		},
	}
	svc, cache := startSyncService(t, client)

	err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.Equal(t, model.SyncStatusPaused, cache.Snapshot().SyncStatus)

	// Resume (as the credential service does after reconfiguration) brings
	// polling back to idle.
	svc.Resume(context.Background())
	waitForStatus(t, cache, model.SyncStatusIdle)
}

func TestSyncNotConfiguredWithoutClient(t *testing.T) {
	svc, cache := startSyncService(t, nil)

	err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, model.ErrNotConfigured)
	assert.Equal(t, model.SyncStatusPaused, cache.Snapshot().SyncStatus)
}

func TestSyncRateLimitDefersNextRefresh(t *testing.T) {
	client := &mockGitHubClient{
		fetchIssues: func(_ context.Context, _ model.RepositoryContext) ([]model.Issue, error) {
			return nil, &model.RateLimitedError{RetryAfter: time.Hour}
		},
	}
	svc, cache := startSyncService(t, client)

	err := svc.Refresh(context.Background())
	retryAfter, ok := model.IsRateLimited(err)
	require.True(t, ok)
	assert.Equal(t, time.Hour, retryAfter)
	assert.Equal(t, model.SyncStatusBackoff, cache.Snapshot().SyncStatus)
}

func TestSyncPauseAndResume(t *testing.T) {
	svc, cache := startSyncService(t, &mockGitHubClient{})

	require.NoError(t, svc.Refresh(context.Background()))

	svc.Pause(context.Background())
	waitForStatus(t, cache, model.SyncStatusPaused)

	// Manual refresh still works while paused.
	require.NoError(t, svc.Refresh(context.Background()))

	svc.Resume(context.Background())
	waitForStatus(t, cache, model.SyncStatusIdle)
}

func TestSyncInitialCycleRunsOnStart(t *testing.T) {
	client := &mockGitHubClient{}
	_, cache := startSyncService(t, client)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		client.mu.Lock()
		calls := client.prCalls
		client.mu.Unlock()
		if calls >= 1 && !cache.Snapshot().LastRefreshed.IsZero() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected an immediate refresh on start")
}

func waitForStatus(t *testing.T, cache *application.Cache, want model.SyncStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cache.Snapshot().SyncStatus == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("cache never reached sync status %q (last %q)", want, cache.Snapshot().SyncStatus)
}
