package driven

import (
	"context"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// GitHubClient defines the driven port for reading repository state from the
// GitHub API. All methods operate on the single repository identified by repo.
type GitHubClient interface {
	// FetchPullRequests lists pull requests sorted by most recent update,
	// including a review-state summary for each open PR.
	FetchPullRequests(ctx context.Context, repo model.RepositoryContext) ([]model.PullRequest, error)

	// FetchPullRequest returns the current state of a single pull request,
	// including its review-state summary and mergeable flag.
	FetchPullRequest(ctx context.Context, repo model.RepositoryContext, number int) (*model.PullRequest, error)

	// FetchIssues lists issues in all states. Pull requests surfaced by the
	// issues API are excluded.
	FetchIssues(ctx context.Context, repo model.RepositoryContext) ([]model.Issue, error)

	// FetchIssue returns the current state of a single issue.
	FetchIssue(ctx context.Context, repo model.RepositoryContext, number int) (*model.Issue, error)

	// FetchCommits lists recent commits on the tracked branch, newest first.
	FetchCommits(ctx context.Context, repo model.RepositoryContext) ([]model.CommitSummary, error)

	// FetchComments lists comments on a PR or issue, oldest first.
	FetchComments(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef) ([]model.Comment, error)
}
