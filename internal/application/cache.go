package application

import (
	"sync"
	"time"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// Snapshot is an immutable, internally consistent view of the entity cache.
// Readers receive a pointer to the current snapshot and must not mutate it;
// every update installs a fresh copy.
type Snapshot struct {
	Generation     uint64
	Context        model.RepositoryContext
	PullRequests   []model.PullRequest
	Issues         []model.Issue
	Commits        []model.CommitSummary
	Comments       map[string][]model.Comment // Keyed by EntityRef.String().
	Activity       model.Activity
	SyncStatus     model.SyncStatus
	LastError      string // Last refresh failure, empty after a clean cycle.
	LastRefreshed  time.Time
	AcknowledgedAt time.Time
}

// PullRequest returns the cached PR with the given number, or nil.
func (s *Snapshot) PullRequest(number int) *model.PullRequest {
	for i := range s.PullRequests {
		if s.PullRequests[i].Number == number {
			return &s.PullRequests[i]
		}
	}
	return nil
}

// Issue returns the cached issue with the given number, or nil.
func (s *Snapshot) Issue(number int) *model.Issue {
	for i := range s.Issues {
		if s.Issues[i].Number == number {
			return &s.Issues[i]
		}
	}
	return nil
}

// clone returns a shallow copy of the snapshot. Slices are shared until
// replaced wholesale; the comments map is copied on append.
func (s *Snapshot) clone() *Snapshot {
	next := *s
	return &next
}

// Cache is the single writable copy of remote state for the active repository
// context. All writes funnel through its mutex; updates are ordered by a
// monotonic generation counter so stale refresh results are discarded instead
// of overwriting newer data. PR, issue, and commit slices carry independent
// applied generations, so a failed commit fetch never discards a successful
// PR refresh.
type Cache struct {
	mu      sync.Mutex
	snap    *Snapshot
	lastGen uint64
	epoch   uint64 // Bumped on context switch; stragglers from the old context are dropped.

	prGen     uint64
	issueGen  uint64
	commitGen uint64

	subs    map[int]chan struct{}
	nextSub int
}

// NewCache creates an empty cache for the given repository context.
func NewCache(repo model.RepositoryContext) *Cache {
	return &Cache{
		snap: emptySnapshot(repo),
		subs: make(map[int]chan struct{}),
	}
}

func emptySnapshot(repo model.RepositoryContext) *Snapshot {
	return &Snapshot{
		Context:      repo,
		PullRequests: []model.PullRequest{},
		Issues:       []model.Issue{},
		Commits:      []model.CommitSummary{},
		Comments:     map[string][]model.Comment{},
		SyncStatus:   model.SyncStatusIdle,
	}
}

// Snapshot returns the current immutable snapshot.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Context returns the active repository context and its epoch. Results
// produced under an older epoch are discarded on apply.
func (c *Cache) Context() (model.RepositoryContext, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Context, c.epoch
}

// NextGeneration allocates a generation for a refresh cycle and returns it
// with the current epoch. Allocation happens at cycle start, so an action
// confirmed while the cycle is in flight always receives a newer stamp.
func (c *Cache) NextGeneration() (gen, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastGen++
	return c.lastGen, c.epoch
}

// SetContext switches the active repository context. The cache is rebuilt
// from empty and all in-flight results from the previous context become
// stale by epoch.
func (c *Cache) SetContext(repo model.RepositoryContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.prGen, c.issueGen, c.commitGen = 0, 0, 0
	c.snap = emptySnapshot(repo)
	c.notifyLocked()
}

// ApplyPullRequests replaces the PR slice if the result is still current:
// same epoch and a generation newer than the last applied PR update.
// Returns false when the result was discarded as stale.
func (c *Cache) ApplyPullRequests(epoch, gen uint64, prs []model.PullRequest) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || gen <= c.prGen {
		return false
	}
	c.prGen = gen
	next := c.snap.clone()
	next.PullRequests = prs
	c.installLocked(next, gen)
	return true
}

// ApplyIssues replaces the issue slice; same staleness rules as
// ApplyPullRequests.
func (c *Cache) ApplyIssues(epoch, gen uint64, issues []model.Issue) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || gen <= c.issueGen {
		return false
	}
	c.issueGen = gen
	next := c.snap.clone()
	next.Issues = issues
	c.installLocked(next, gen)
	return true
}

// ApplyCommits replaces the commit slice; same staleness rules as
// ApplyPullRequests.
func (c *Cache) ApplyCommits(epoch, gen uint64, commits []model.CommitSummary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || gen <= c.commitGen {
		return false
	}
	c.commitGen = gen
	next := c.snap.clone()
	next.Commits = commits
	c.installLocked(next, gen)
	return true
}

// ApplyAction merges a dispatcher-confirmed entity (and any created comment)
// into the cache. The generation is allocated at apply time, so it is newer
// than the stamp of any background refresh that was already in flight when
// the action began; that refresh's slice replacement will then be discarded
// rather than overwriting the confirmed state. Returns false if the context
// changed while the action was in flight.
func (c *Cache) ApplyAction(epoch uint64, updated model.UpdatedEntity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return false
	}

	c.lastGen++
	gen := c.lastGen
	next := c.snap.clone()

	if updated.PullRequest != nil {
		next.PullRequests = replacePR(next.PullRequests, *updated.PullRequest)
		c.prGen = gen
	}
	if updated.Issue != nil {
		next.Issues = replaceIssue(next.Issues, *updated.Issue)
		c.issueGen = gen
	}
	if updated.Comment != nil {
		key := updated.Comment.Parent.String()
		comments := make(map[string][]model.Comment, len(next.Comments))
		for k, v := range next.Comments {
			comments[k] = v
		}
		comments[key] = append(append([]model.Comment{}, comments[key]...), *updated.Comment)
		next.Comments = comments
	}

	c.installLocked(next, gen)
	return true
}

// SetSyncState records the scheduler's externally visible state and last
// error without touching entity data.
func (c *Cache) SetSyncState(status model.SyncStatus, lastError string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.snap.clone()
	next.SyncStatus = status
	next.LastError = lastError
	c.snap = next
	c.notifyLocked()
}

// Acknowledge records the newest commit timestamp as the new-commit baseline,
// bringing the new-commit count to zero. The commit list itself is retained.
func (c *Cache) Acknowledge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.snap.clone()
	for _, commit := range next.Commits {
		if commit.Timestamp.After(next.AcknowledgedAt) {
			next.AcknowledgedAt = commit.Timestamp
		}
	}
	next.Activity = model.ComputeActivity(next.PullRequests, next.Issues, next.Commits, next.AcknowledgedAt)
	c.snap = next
	c.notifyLocked()
}

// Subscribe registers a change listener. The returned channel receives a
// signal (coalesced, buffered) after every cache update; the cancel function
// unregisters it.
func (c *Cache) Subscribe() (<-chan struct{}, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan struct{}, 1)
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
	return ch, cancel
}

// installLocked finalizes and publishes a new snapshot: stamps the
// generation, recomputes the activity summary, and notifies subscribers.
// Callers hold c.mu.
func (c *Cache) installLocked(next *Snapshot, gen uint64) {
	if gen > next.Generation {
		next.Generation = gen
	}
	next.Activity = model.ComputeActivity(next.PullRequests, next.Issues, next.Commits, next.AcknowledgedAt)
	next.LastRefreshed = time.Now()
	c.snap = next
	c.notifyLocked()
}

// notifyLocked signals all subscribers without blocking; a subscriber that
// has not drained its channel keeps its single pending signal.
func (c *Cache) notifyLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// replacePR swaps the PR with a matching number, or prepends a new one.
// The input slice is not modified.
func replacePR(prs []model.PullRequest, pr model.PullRequest) []model.PullRequest {
	next := make([]model.PullRequest, len(prs))
	copy(next, prs)
	for i := range next {
		if next[i].Number == pr.Number {
			next[i] = pr
			return next
		}
	}
	return append([]model.PullRequest{pr}, next...)
}

// replaceIssue swaps the issue with a matching number, or prepends a new one.
func replaceIssue(issues []model.Issue, issue model.Issue) []model.Issue {
	next := make([]model.Issue, len(issues))
	copy(next, issues)
	for i := range next {
		if next[i].Number == issue.Number {
			next[i] = issue
			return next
		}
	}
	return append([]model.Issue{issue}, next...)
}
