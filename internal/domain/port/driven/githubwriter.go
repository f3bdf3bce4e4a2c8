package driven

import (
	"context"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// GitHubWriter defines the driven port for mutating repository state. It is
// intentionally separate from GitHubClient (read operations) following the
// Interface Segregation Principle. Mutations are never retried after an
// ambiguous partial response; the dispatcher re-fetches the affected entity
// afterwards for authoritative state.
type GitHubWriter interface {
	// SubmitReview submits a review on a pull request.
	// event must be "APPROVE", "REQUEST_CHANGES", or "COMMENT".
	SubmitReview(ctx context.Context, repo model.RepositoryContext, prNumber int, event, body string) error

	// MergePullRequest merges a pull request with the given method
	// ("merge", "squash", or "rebase"). A server-side refusal (conflicted
	// branch, blocked by checks) returns an ActionRejectedError.
	MergePullRequest(ctx context.Context, repo model.RepositoryContext, prNumber int, method string) error

	// CreateComment posts a comment on a PR or issue and returns the
	// created comment as confirmed by the server.
	CreateComment(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, body string) (*model.Comment, error)

	// SetState closes or reopens a PR or issue.
	SetState(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, state model.EntityState) error

	// CreateReaction adds a reaction to the entity itself or to its most
	// recent comment. content is one of GitHub's fixed reaction strings.
	CreateReaction(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, target model.ReactionTarget, content string) error

	// ValidateToken verifies that the given personal access token is valid
	// and returns the authenticated username on success.
	ValidateToken(ctx context.Context, token string) (username string, err error)
}
