package model

import "time"

// Issue represents an issue on the active repository. Pull requests surfaced
// by GitHub's issues API are filtered out at the adapter boundary.
type Issue struct {
	ID        int64
	Number    int
	Title     string
	State     EntityState
	Author    string
	Labels    []string
	URL       string
	UpdatedAt time.Time
}

// Ref returns the entity reference identifying this issue.
func (i Issue) Ref() EntityRef {
	return EntityRef{Kind: EntityKindIssue, Number: i.Number}
}

// IsOpen reports whether the issue is still open.
func (i Issue) IsOpen() bool {
	return i.State == EntityStateOpen
}
