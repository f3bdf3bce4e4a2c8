package model

// EntityKind distinguishes the two actionable entity types.
type EntityKind string

const (
	EntityKindPullRequest EntityKind = "pull_request"
	EntityKindIssue       EntityKind = "issue"
)

// EntityState represents the lifecycle state of a PR or issue.
// Issues are never "merged".
type EntityState string

const (
	EntityStateOpen   EntityState = "open"
	EntityStateClosed EntityState = "closed"
	EntityStateMerged EntityState = "merged"
)

// MergeableStatus mirrors GitHub's tri-state mergeable field.
type MergeableStatus string

const (
	MergeableUnknown    MergeableStatus = "unknown"
	MergeableMergeable  MergeableStatus = "mergeable"
	MergeableConflicted MergeableStatus = "conflicted"
)

// SyncStatus is the scheduler's externally visible state.
type SyncStatus string

const (
	SyncStatusIdle       SyncStatus = "idle"
	SyncStatusRefreshing SyncStatus = "refreshing"
	SyncStatusBackoff    SyncStatus = "backoff"
	SyncStatusPaused     SyncStatus = "paused"
)
