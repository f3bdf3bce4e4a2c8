package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

const (
	backoffBase = 10 * time.Second
	backoffCap  = 5 * time.Minute
)

// refreshRequest represents a manual refresh trigger.
type refreshRequest struct {
	done chan error
}

// SyncService orchestrates periodic polling of the active repository and
// folds results into the entity cache. It runs Idle -> Refreshing -> Idle
// cycles, entering Backoff on failure and Paused when the app is hidden or
// credentials are missing. All state transitions happen on the Start loop's
// goroutine; triggers arrive over channels.
type SyncService struct {
	provider *ClientProvider
	cache    *Cache
	interval time.Duration

	refreshCh chan refreshRequest
	pauseCh   chan bool

	// Loop-owned state, touched only from Start.
	paused       bool
	backoffUntil time.Time
	backoff      retry.Backoff
}

// NewSyncService creates a SyncService polling on the given interval.
func NewSyncService(provider *ClientProvider, cache *Cache, interval time.Duration) *SyncService {
	return &SyncService{
		provider:  provider,
		cache:     cache,
		interval:  interval,
		refreshCh: make(chan refreshRequest),
		pauseCh:   make(chan bool),
	}
}

// Start begins the polling loop. It runs an immediate refresh, then refreshes
// on the configured interval, honoring backoff and pause. It also listens for
// manual refresh requests, which bypass both. Start blocks until the context
// is canceled.
func (s *SyncService) Start(ctx context.Context) {
	s.afterCycle(s.runCycle(ctx))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync service stopped")
			return
		case <-ticker.C:
			if s.paused || time.Now().Before(s.backoffUntil) {
				continue
			}
			s.afterCycle(s.runCycle(ctx))
		case req := <-s.refreshCh:
			err := s.runCycle(ctx)
			s.afterCycle(err)
			req.done <- err
		case paused := <-s.pauseCh:
			s.setPaused(paused)
		}
	}
}

// Refresh triggers an immediate refresh, bypassing the polling interval and
// any backoff. It blocks until the refresh completes or the context is
// canceled.
func (s *SyncService) Refresh(ctx context.Context) error {
	done := make(chan error, 1)

	select {
	case s.refreshCh <- refreshRequest{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause suspends scheduled polling, e.g. while the app window is hidden.
// Manual refreshes still work while paused.
func (s *SyncService) Pause(ctx context.Context) {
	select {
	case s.pauseCh <- true:
	case <-ctx.Done():
	}
}

// Resume re-enables scheduled polling. Called when the app becomes visible
// again or after credentials are reconfigured.
func (s *SyncService) Resume(ctx context.Context) {
	select {
	case s.pauseCh <- false:
	case <-ctx.Done():
	}
}

// runCycle performs one refresh: the PR, issue, and commit fetches are
// mutually independent and run concurrently, and each successful slice is
// applied on its own, so a failed commit fetch never discards a successful
// PR refresh. The generation is allocated up front; if a newer update lands
// before a fetch completes, that fetch's result is discarded by the cache.
func (s *SyncService) runCycle(ctx context.Context) error {
	client := s.provider.Client()
	if client == nil {
		return model.ErrNotConfigured
	}

	repo, epoch := s.cache.Context()
	gen, _ := s.cache.NextGeneration()
	s.cache.SetSyncState(model.SyncStatusRefreshing, s.cache.Snapshot().LastError)

	start := time.Now()
	var prErr, issueErr, commitErr error

	var g errgroup.Group
	g.Go(func() error {
		prs, err := client.FetchPullRequests(ctx, repo)
		if err != nil {
			prErr = err
			return nil
		}
		if !s.cache.ApplyPullRequests(epoch, gen, prs) {
			slog.Debug("stale pr refresh discarded", "generation", gen)
		}
		return nil
	})
	g.Go(func() error {
		issues, err := client.FetchIssues(ctx, repo)
		if err != nil {
			issueErr = err
			return nil
		}
		if !s.cache.ApplyIssues(epoch, gen, issues) {
			slog.Debug("stale issue refresh discarded", "generation", gen)
		}
		return nil
	})
	g.Go(func() error {
		commits, err := client.FetchCommits(ctx, repo)
		if err != nil {
			commitErr = err
			return nil
		}
		if !s.cache.ApplyCommits(epoch, gen, commits) {
			slog.Debug("stale commit refresh discarded", "generation", gen)
		}
		return nil
	})
	_ = g.Wait()

	err := errors.Join(prErr, issueErr, commitErr)
	if err != nil {
		slog.Error("refresh cycle failed",
			"repo", repo.FullName(),
			"generation", gen,
			"error", err,
		)
		return err
	}

	slog.Info("refresh cycle complete",
		"repo", repo.FullName(),
		"generation", gen,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// afterCycle applies the failure policy: success clears backoff; credential
// problems pause polling until reconfiguration; rate limits defer the next
// attempt until the server-provided delay elapses; other failures back off
// exponentially with jitter up to a ceiling. Errors are reflected in the
// snapshot as non-fatal status, never escalated.
func (s *SyncService) afterCycle(err error) {
	if err == nil {
		s.backoff = nil
		s.backoffUntil = time.Time{}
		if s.paused {
			s.cache.SetSyncState(model.SyncStatusPaused, "")
		} else {
			s.cache.SetSyncState(model.SyncStatusIdle, "")
		}
		return
	}

	switch {
	case errors.Is(err, model.ErrNotConfigured), errors.Is(err, model.ErrUnauthenticated):
		s.paused = true
		s.cache.SetSyncState(model.SyncStatusPaused, err.Error())
		slog.Warn("polling paused until credentials are reconfigured", "reason", err)
		return
	default:
	}

	if retryAfter, ok := model.IsRateLimited(err); ok {
		s.backoffUntil = time.Now().Add(retryAfter)
		s.cache.SetSyncState(model.SyncStatusBackoff, err.Error())
		slog.Warn("rate limited, deferring next refresh", "retry_after", retryAfter.Round(time.Second))
		return
	}

	if s.backoff == nil {
		s.backoff = retry.WithJitter(time.Second,
			retry.WithCappedDuration(backoffCap,
				retry.NewExponential(backoffBase)))
	}
	delay, _ := s.backoff.Next()
	s.backoffUntil = time.Now().Add(delay)
	s.cache.SetSyncState(model.SyncStatusBackoff, err.Error())
	slog.Warn("refresh failed, backing off", "delay", delay.Round(time.Second), "error", err)
}

// setPaused switches scheduled polling on or off and reflects the state in
// the snapshot.
func (s *SyncService) setPaused(paused bool) {
	if s.paused == paused {
		return
	}
	s.paused = paused
	if paused {
		s.cache.SetSyncState(model.SyncStatusPaused, s.cache.Snapshot().LastError)
	} else {
		s.backoff = nil
		s.backoffUntil = time.Time{}
		s.cache.SetSyncState(model.SyncStatusIdle, s.cache.Snapshot().LastError)
	}
}
