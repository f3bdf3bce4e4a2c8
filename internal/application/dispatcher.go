package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
	"github.com/ericfisherdev/repodeck/internal/domain/port/driven"
)

// inflightKey identifies one in-flight action slot: a second action in the
// same class on the same target is rejected, not queued.
type inflightKey struct {
	target model.EntityRef
	class  model.ActionClass
}

// Dispatcher executes user-initiated mutating actions against GitHub and
// reconciles the confirmed server state back into the entity cache. The
// cache is never updated optimistically: a failed action leaves it untouched
// and the UI reflects only confirmed state.
type Dispatcher struct {
	provider *ClientProvider
	cache    *Cache

	mu       sync.Mutex
	inflight map[inflightKey]struct{}
}

// NewDispatcher creates a Dispatcher writing through the given cache.
func NewDispatcher(provider *ClientProvider, cache *Cache) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		cache:    cache,
		inflight: make(map[inflightKey]struct{}),
	}
}

// Dispatch executes one mutating action. It returns ErrNotConfigured without
// touching the network when no credentials are set, ErrAlreadyInFlight when
// an action in the same class is outstanding for the target, and the
// authoritative updated entity on success. If the repository context changes
// while the call is in flight, the result is discarded rather than applied.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.ActionRequest) (*model.UpdatedEntity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	writer := d.provider.Writer()
	client := d.provider.Client()
	if writer == nil || client == nil {
		return nil, model.ErrNotConfigured
	}

	repo, epoch := d.cache.Context()

	if req.Kind == model.ActionMerge {
		if err := d.validateMerge(req.Target.Number); err != nil {
			return nil, err
		}
	}

	key := inflightKey{target: req.Target, class: req.Kind.Class()}
	if !d.tryAcquire(key) {
		return nil, fmt.Errorf("%w: %s %s", model.ErrAlreadyInFlight, req.Target, req.Kind.Class())
	}
	defer d.release(key)

	created, err := d.perform(ctx, writer, repo, req)
	if err != nil {
		slog.Warn("action failed",
			"target", req.Target.String(),
			"kind", string(req.Kind),
			"error", err,
		)
		return nil, err
	}

	updated := d.reconcile(ctx, repo, req, created)

	if !d.cache.ApplyAction(epoch, *updated) {
		slog.Info("action result discarded, repository context changed",
			"target", req.Target.String(),
			"kind", string(req.Kind),
		)
	}

	slog.Info("action confirmed", "target", req.Target.String(), "kind", string(req.Kind))
	return updated, nil
}

// validateMerge rejects a merge locally when the cache already knows the PR
// cannot merge, avoiding a predictable remote rejection. Unknown mergeability
// is allowed through; the server has the final say.
func (d *Dispatcher) validateMerge(number int) error {
	snap := d.cache.Snapshot()
	pr := snap.PullRequest(number)
	if pr == nil {
		return nil
	}
	if !pr.IsOpen() {
		return &model.ActionRejectedError{Reason: fmt.Sprintf("PR#%d is %s", number, pr.State)}
	}
	if pr.Mergeable == model.MergeableConflicted {
		return &model.ActionRejectedError{Reason: fmt.Sprintf("PR#%d has merge conflicts", number)}
	}
	return nil
}

// perform issues the actual write call. It returns the created comment for
// comment actions; other kinds return nil.
func (d *Dispatcher) perform(ctx context.Context, writer driven.GitHubWriter, repo model.RepositoryContext, req model.ActionRequest) (*model.Comment, error) {
	switch req.Kind {
	case model.ActionApprove:
		return nil, writer.SubmitReview(ctx, repo, req.Target.Number, "APPROVE", req.Body)
	case model.ActionRequestChanges:
		return nil, writer.SubmitReview(ctx, repo, req.Target.Number, "REQUEST_CHANGES", req.Body)
	case model.ActionMerge:
		return nil, writer.MergePullRequest(ctx, repo, req.Target.Number, req.MergeMethod)
	case model.ActionComment:
		return writer.CreateComment(ctx, repo, req.Target, req.Body)
	case model.ActionClose:
		return nil, writer.SetState(ctx, repo, req.Target, model.EntityStateClosed)
	case model.ActionReopen:
		return nil, writer.SetState(ctx, repo, req.Target, model.EntityStateOpen)
	case model.ActionReact:
		return nil, writer.CreateReaction(ctx, repo, req.Target, req.ReactTo, req.Reaction)
	}
	return nil, fmt.Errorf("unknown action kind %q", req.Kind)
}

// reconcile fetches the authoritative entity state after a confirmed action.
// A failed re-fetch degrades to the created sub-entity only; the next
// background refresh will catch the cache up.
func (d *Dispatcher) reconcile(ctx context.Context, repo model.RepositoryContext, req model.ActionRequest, created *model.Comment) *model.UpdatedEntity {
	client := d.provider.Client()
	updated := &model.UpdatedEntity{Comment: created}
	if client == nil {
		return updated
	}

	switch req.Target.Kind {
	case model.EntityKindPullRequest:
		pr, err := client.FetchPullRequest(ctx, repo, req.Target.Number)
		if err != nil {
			slog.Warn("post-action refetch failed", "target", req.Target.String(), "error", err)
			return updated
		}
		updated.PullRequest = pr
	case model.EntityKindIssue:
		issue, err := client.FetchIssue(ctx, repo, req.Target.Number)
		if err != nil {
			slog.Warn("post-action refetch failed", "target", req.Target.String(), "error", err)
			return updated
		}
		updated.Issue = issue
	}
	return updated
}

// tryAcquire registers the in-flight slot; false means one is outstanding.
func (d *Dispatcher) tryAcquire(key inflightKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inflight[key]; busy {
		return false
	}
	d.inflight[key] = struct{}{}
	return true
}

// release clears the in-flight slot.
func (d *Dispatcher) release(key inflightKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, key)
}
