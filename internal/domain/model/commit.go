package model

import "time"

// CommitSummary is a read-only view of a recent commit on the tracked branch.
// The commit list is replaced wholesale on each refresh, never edited.
type CommitSummary struct {
	SHA       string
	Message   string // First line only.
	Author    string
	Timestamp time.Time
}

// ShortSHA returns the abbreviated commit hash.
func (c CommitSummary) ShortSHA() string {
	if len(c.SHA) <= 7 {
		return c.SHA
	}
	return c.SHA[:7]
}
