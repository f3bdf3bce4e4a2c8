package github

import (
	"log/slog"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// mapPullRequest converts a go-github PullRequest to a domain model
// PullRequest. It uses GetXxx() helper methods exclusively to avoid nil
// pointer panics.
func mapPullRequest(pr *gh.PullRequest) model.PullRequest {
	state := model.EntityStateOpen
	if !pr.GetMergedAt().IsZero() {
		state = model.EntityStateMerged
	} else if pr.GetState() == "closed" {
		state = model.EntityStateClosed
	}

	return model.PullRequest{
		ID:        pr.GetID(),
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		State:     state,
		Author:    pr.GetUser().GetLogin(),
		HeadRef:   pr.GetHead().GetRef(),
		BaseRef:   pr.GetBase().GetRef(),
		HeadSHA:   pr.GetHead().GetSHA(),
		URL:       pr.GetHTMLURL(),
		IsDraft:   pr.GetDraft(),
		Mergeable: model.MergeableUnknown,
		OpenedAt:  pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
	}
}

// mapIssue converts a go-github Issue to a domain model Issue.
func mapIssue(issue *gh.Issue) model.Issue {
	state := model.EntityStateOpen
	if issue.GetState() == "closed" {
		state = model.EntityStateClosed
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return model.Issue{
		ID:        issue.GetID(),
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		State:     state,
		Author:    issue.GetUser().GetLogin(),
		Labels:    labels,
		URL:       issue.GetHTMLURL(),
		UpdatedAt: issue.GetUpdatedAt().Time,
	}
}

// mapCommit converts a go-github RepositoryCommit to a domain CommitSummary.
// The message is trimmed to its first line.
func mapCommit(commit *gh.RepositoryCommit) model.CommitSummary {
	message := commit.GetCommit().GetMessage()
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		message = message[:idx]
	}

	author := commit.GetAuthor().GetLogin()
	if author == "" {
		author = commit.GetCommit().GetAuthor().GetName()
	}

	return model.CommitSummary{
		SHA:       commit.GetSHA(),
		Message:   message,
		Author:    author,
		Timestamp: commit.GetCommit().GetAuthor().GetDate().Time,
	}
}

// mapComment converts a go-github IssueComment to a domain Comment attached
// to the given parent.
func mapComment(comment *gh.IssueComment, parent model.EntityRef) model.Comment {
	return model.Comment{
		ID:        comment.GetID(),
		Parent:    parent,
		Author:    comment.GetUser().GetLogin(),
		Body:      comment.GetBody(),
		CreatedAt: comment.GetCreatedAt().Time,
	}
}

// mapMergeable converts GitHub's tri-state mergeable field to a
// MergeableStatus. nil means GitHub hasn't computed it yet.
func mapMergeable(mergeable *bool) model.MergeableStatus {
	if mergeable == nil {
		return model.MergeableUnknown
	}
	if *mergeable {
		return model.MergeableMergeable
	}
	return model.MergeableConflicted
}

// summarizeReviews counts review states, keeping only each reviewer's latest
// review. Pending and dismissed reviews are ignored.
func summarizeReviews(reviews []*gh.PullRequestReview) model.ReviewSummary {
	latest := make(map[string]string)
	for _, review := range reviews {
		login := review.GetUser().GetLogin()
		if login == "" {
			continue
		}
		switch state := strings.ToUpper(review.GetState()); state {
		case "APPROVED", "CHANGES_REQUESTED", "COMMENTED":
			// COMMENTED does not supersede a standing verdict.
			if state == "COMMENTED" && latest[login] != "" {
				continue
			}
			latest[login] = state
		}
	}

	var summary model.ReviewSummary
	for _, state := range latest {
		switch state {
		case "APPROVED":
			summary.Approvals++
		case "CHANGES_REQUESTED":
			summary.ChangesRequested++
		case "COMMENTED":
			summary.Comments++
		}
	}
	return summary
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 && resp.Rate.Limit > 0 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// logEnrichError logs a failed per-PR enrichment fetch.
func logEnrichError(repo model.RepositoryContext, number int, step string, err error) {
	slog.Warn("pr enrichment fetch failed",
		"repo", repo.FullName(),
		"pr", number,
		"step", step,
		"error", err,
	)
}
