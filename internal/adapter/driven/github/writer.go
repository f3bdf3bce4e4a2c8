package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// withWriteRetry runs a mutating call. Unlike reads, the call is retried only
// when the connection could not be established at all; after an ambiguous
// partial response the error surfaces as-is so a merge or comment is never
// duplicated.
func (c *Client) withWriteRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err != nil && isPreResponseFailure(err) {
		err = fn(ctx)
	}
	return classifyError(err)
}

// SubmitReview submits a review on a pull request. event must be "APPROVE",
// "REQUEST_CHANGES", or "COMMENT".
func (c *Client) SubmitReview(ctx context.Context, repo model.RepositoryContext, prNumber int, event, body string) error {
	review := &gh.PullRequestReviewRequest{
		Event: gh.Ptr(event),
	}
	// GitHub rejects APPROVE with an explicit empty body.
	if body != "" || event != "APPROVE" {
		review.Body = gh.Ptr(body)
	}

	err := c.withWriteRetry(ctx, func(ctx context.Context) error {
		_, resp, err := c.gh.PullRequests.CreateReview(ctx, repo.Owner, repo.Name, prNumber, review)
		logRateLimit(resp, fmt.Sprintf("%s/pulls/%d/reviews", repo.FullName(), prNumber), 1)
		return err
	})
	if err != nil {
		return fmt.Errorf("submitting %s review for %s#%d: %w", event, repo.FullName(), prNumber, err)
	}
	return nil
}

// MergePullRequest merges a pull request with the given method ("merge",
// "squash", or "rebase"). A server-side refusal surfaces as an
// ActionRejectedError via error classification.
func (c *Client) MergePullRequest(ctx context.Context, repo model.RepositoryContext, prNumber int, method string) error {
	if method == "" {
		method = "merge"
	}
	opts := &gh.PullRequestOptions{MergeMethod: method}

	err := c.withWriteRetry(ctx, func(ctx context.Context) error {
		_, resp, err := c.gh.PullRequests.Merge(ctx, repo.Owner, repo.Name, prNumber, "", opts)
		logRateLimit(resp, fmt.Sprintf("%s/pulls/%d/merge", repo.FullName(), prNumber), 1)
		return err
	})
	if err != nil {
		return fmt.Errorf("merging %s#%d: %w", repo.FullName(), prNumber, err)
	}
	return nil
}

// CreateComment posts a comment on a PR or issue via the issues API and
// returns the created comment as confirmed by the server.
func (c *Client) CreateComment(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, body string) (*model.Comment, error) {
	var created *gh.IssueComment
	err := c.withWriteRetry(ctx, func(ctx context.Context) error {
		comment, resp, err := c.gh.Issues.CreateComment(ctx, repo.Owner, repo.Name, ref.Number, &gh.IssueComment{
			Body: gh.Ptr(body),
		})
		logRateLimit(resp, fmt.Sprintf("%s/issues/%d/comments", repo.FullName(), ref.Number), 1)
		created = comment
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating comment on %s %s: %w", repo.FullName(), ref, err)
	}

	comment := mapComment(created, ref)
	return &comment, nil
}

// SetState closes or reopens a PR or issue.
func (c *Client) SetState(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, state model.EntityState) error {
	if state != model.EntityStateOpen && state != model.EntityStateClosed {
		return fmt.Errorf("cannot set %s to state %q", ref, state)
	}

	err := c.withWriteRetry(ctx, func(ctx context.Context) error {
		if ref.Kind == model.EntityKindPullRequest {
			_, resp, err := c.gh.PullRequests.Edit(ctx, repo.Owner, repo.Name, ref.Number, &gh.PullRequest{
				State: gh.Ptr(string(state)),
			})
			logRateLimit(resp, fmt.Sprintf("%s/pulls/%d", repo.FullName(), ref.Number), 1)
			return err
		}
		_, resp, err := c.gh.Issues.Edit(ctx, repo.Owner, repo.Name, ref.Number, &gh.IssueRequest{
			State: gh.Ptr(string(state)),
		})
		logRateLimit(resp, fmt.Sprintf("%s/issues/%d", repo.FullName(), ref.Number), 1)
		return err
	})
	if err != nil {
		return fmt.Errorf("setting %s %s to %s: %w", repo.FullName(), ref, state, err)
	}
	return nil
}

// CreateReaction adds a reaction to the entity itself or to its most recent
// comment. content must be one of GitHub's fixed reaction strings.
func (c *Client) CreateReaction(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef, target model.ReactionTarget, content string) error {
	if target == model.ReactionTargetLastComment {
		comments, err := c.FetchComments(ctx, repo, ref)
		if err != nil {
			return err
		}
		if len(comments) == 0 {
			return &model.ActionRejectedError{Reason: fmt.Sprintf("%s has no comments to react to", ref)}
		}
		last := comments[len(comments)-1]

		err = c.withWriteRetry(ctx, func(ctx context.Context) error {
			_, resp, err := c.gh.Reactions.CreateIssueCommentReaction(ctx, repo.Owner, repo.Name, last.ID, content)
			logRateLimit(resp, fmt.Sprintf("%s/comments/%d/reactions", repo.FullName(), last.ID), 1)
			return err
		})
		if err != nil {
			return fmt.Errorf("reacting to comment %d on %s %s: %w", last.ID, repo.FullName(), ref, err)
		}
		return nil
	}

	err := c.withWriteRetry(ctx, func(ctx context.Context) error {
		_, resp, err := c.gh.Reactions.CreateIssueReaction(ctx, repo.Owner, repo.Name, ref.Number, content)
		logRateLimit(resp, fmt.Sprintf("%s/issues/%d/reactions", repo.FullName(), ref.Number), 1)
		return err
	})
	if err != nil {
		return fmt.Errorf("reacting to %s %s: %w", repo.FullName(), ref, err)
	}
	return nil
}

// ValidateToken verifies that the given GitHub personal access token is valid
// and returns the authenticated username on success. It creates a one-shot
// client with the provided token to avoid mutating the receiver's state.
func (c *Client) ValidateToken(ctx context.Context, token string) (string, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	tempClient := gh.NewClient(httpClient).WithAuthToken(token)
	if c.gh.BaseURL != nil {
		tempClient.BaseURL = c.gh.BaseURL
	}

	user, _, err := tempClient.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("token validation failed: %w", classifyError(err))
	}
	return user.GetLogin(), nil
}
