package model

import "time"

// Activity is the derived summary shown as the dashboard badge.
type Activity struct {
	OpenPRs    int
	OpenIssues int
	NewCommits int // Commits newer than the last acknowledged timestamp.
}

// ComputeActivity derives the activity summary from cache slices. It is a
// pure function so the aggregator can be recomputed on every cache update.
func ComputeActivity(prs []PullRequest, issues []Issue, commits []CommitSummary, ackedAt time.Time) Activity {
	var a Activity
	for _, pr := range prs {
		if pr.IsOpen() {
			a.OpenPRs++
		}
	}
	for _, iss := range issues {
		if iss.IsOpen() {
			a.OpenIssues++
		}
	}
	for _, c := range commits {
		if c.Timestamp.After(ackedAt) {
			a.NewCommits++
		}
	}
	return a
}
