package model

import "time"

// PullRequest represents a pull request on the active repository as last
// confirmed by the GitHub API. Instances are owned by the entity cache and
// are only replaced through reconciliation, never mutated in place.
type PullRequest struct {
	ID        int64
	Number    int
	Title     string
	State     EntityState
	Author    string
	HeadRef   string
	BaseRef   string
	HeadSHA   string
	URL       string
	IsDraft   bool
	Mergeable MergeableStatus // Default MergeableUnknown until GitHub computes it.
	Reviews   ReviewSummary
	OpenedAt  time.Time
	UpdatedAt time.Time
}

// ReviewSummary condenses a pull request's review state for dashboard display.
type ReviewSummary struct {
	Approvals        int
	ChangesRequested int
	Comments         int
}

// Ref returns the entity reference identifying this pull request.
func (pr PullRequest) Ref() EntityRef {
	return EntityRef{Kind: EntityKindPullRequest, Number: pr.Number}
}

// IsOpen reports whether the pull request is still open.
func (pr PullRequest) IsOpen() bool {
	return pr.State == EntityStateOpen
}
