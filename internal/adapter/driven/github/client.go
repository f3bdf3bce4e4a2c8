// Package github implements the GitHubClient and GitHubWriter ports using the
// go-github library.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"github.com/sethvargo/go-retry"

	"github.com/ericfisherdev/repodeck/internal/domain/model"
	"github.com/ericfisherdev/repodeck/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.GitHubClient = (*Client)(nil)
	_ driven.GitHubWriter = (*Client)(nil)
)

const (
	callTimeout = 30 * time.Second

	// Number of retries after the initial attempt for idempotent reads.
	maxReadRetries = 3

	// Size of the fetched window. Closed and merged items stay visible
	// until they age out of this window.
	listWindow = 100

	commitWindow = 20

	// Cap on per-PR enrichment calls (reviews, mergeable) per refresh.
	maxEnrichedPRs = 20
)

// Client implements the GitHubClient and GitHubWriter ports for a single
// repository using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = callTimeout
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// withReadRetry runs fn with capped exponential backoff plus jitter, retrying
// only transient failures. Safe for idempotent GETs only.
func (c *Client) withReadRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(maxReadRetries,
		retry.WithJitter(250*time.Millisecond,
			retry.WithCappedDuration(10*time.Second,
				retry.NewExponential(500*time.Millisecond))))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})

	return classifyError(err)
}

// FetchPullRequests lists pull requests sorted by most recent update. Open PRs
// within the enrichment cap get a review-state summary and mergeable flag from
// follow-up calls; partial enrichment failures degrade to unknown rather than
// failing the whole fetch.
func (c *Client) FetchPullRequests(ctx context.Context, repo model.RepositoryContext) ([]model.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: listWindow},
	}

	var raw []*gh.PullRequest
	err := c.withReadRetry(ctx, func(ctx context.Context) error {
		prs, resp, err := c.gh.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return err
		}
		logRateLimit(resp, repo.FullName()+"/pulls", len(prs))
		raw = prs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing pull requests for %s: %w", repo.FullName(), err)
	}

	prs := make([]model.PullRequest, 0, len(raw))
	for _, pr := range raw {
		prs = append(prs, mapPullRequest(pr))
	}

	enriched := 0
	for i := range prs {
		if !prs[i].IsOpen() || enriched >= maxEnrichedPRs {
			continue
		}
		enriched++
		c.enrichPullRequest(ctx, repo, &prs[i])
	}

	return prs, nil
}

// enrichPullRequest fills in the mergeable flag and review summary for an open
// PR. Failures leave the defaults in place; the next refresh will try again.
func (c *Client) enrichPullRequest(ctx context.Context, repo model.RepositoryContext, pr *model.PullRequest) {
	detailErr := c.withReadRetry(ctx, func(ctx context.Context) error {
		detail, _, err := c.gh.PullRequests.Get(ctx, repo.Owner, repo.Name, pr.Number)
		if err != nil {
			return err
		}
		pr.Mergeable = mapMergeable(detail.Mergeable)
		return nil
	})
	if detailErr != nil {
		logEnrichError(repo, pr.Number, "detail", detailErr)
	}

	summary, err := c.fetchReviewSummary(ctx, repo, pr.Number)
	if err != nil {
		logEnrichError(repo, pr.Number, "reviews", err)
		return
	}
	pr.Reviews = summary
}

// FetchPullRequest returns the current state of a single pull request,
// including its review summary and mergeable flag.
func (c *Client) FetchPullRequest(ctx context.Context, repo model.RepositoryContext, number int) (*model.PullRequest, error) {
	var raw *gh.PullRequest
	err := c.withReadRetry(ctx, func(ctx context.Context) error {
		pr, resp, err := c.gh.PullRequests.Get(ctx, repo.Owner, repo.Name, number)
		if err != nil {
			return err
		}
		logRateLimit(resp, fmt.Sprintf("%s/pulls/%d", repo.FullName(), number), 1)
		raw = pr
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching PR %s#%d: %w", repo.FullName(), number, err)
	}

	pr := mapPullRequest(raw)
	pr.Mergeable = mapMergeable(raw.Mergeable)

	summary, err := c.fetchReviewSummary(ctx, repo, number)
	if err != nil {
		logEnrichError(repo, number, "reviews", err)
	} else {
		pr.Reviews = summary
	}

	return &pr, nil
}

// fetchReviewSummary condenses the PR's reviews into per-state counts,
// keeping only each reviewer's latest review.
func (c *Client) fetchReviewSummary(ctx context.Context, repo model.RepositoryContext, number int) (model.ReviewSummary, error) {
	var raw []*gh.PullRequestReview
	err := c.withReadRetry(ctx, func(ctx context.Context) error {
		reviews, _, err := c.gh.PullRequests.ListReviews(ctx, repo.Owner, repo.Name, number, &gh.ListOptions{PerPage: listWindow})
		if err != nil {
			return err
		}
		raw = reviews
		return nil
	})
	if err != nil {
		return model.ReviewSummary{}, fmt.Errorf("listing reviews for %s#%d: %w", repo.FullName(), number, err)
	}

	return summarizeReviews(raw), nil
}

// FetchIssues lists issues in all states within the fetched window. Pull
// requests surfaced by the issues API are excluded.
func (c *Client) FetchIssues(ctx context.Context, repo model.RepositoryContext) ([]model.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: listWindow},
	}

	var raw []*gh.Issue
	err := c.withReadRetry(ctx, func(ctx context.Context) error {
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return err
		}
		logRateLimit(resp, repo.FullName()+"/issues", len(issues))
		raw = issues
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing issues for %s: %w", repo.FullName(), err)
	}

	issues := make([]model.Issue, 0, len(raw))
	for _, issue := range raw {
		if issue.IsPullRequest() {
			continue
		}
		issues = append(issues, mapIssue(issue))
	}

	return issues, nil
}

// FetchIssue returns the current state of a single issue.
func (c *Client) FetchIssue(ctx context.Context, repo model.RepositoryContext, number int) (*model.Issue, error) {
	var raw *gh.Issue
	err := c.withReadRetry(ctx, func(ctx context.Context) error {
		issue, _, err := c.gh.Issues.Get(ctx, repo.Owner, repo.Name, number)
		if err != nil {
			return err
		}
		raw = issue
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching issue %s#%d: %w", repo.FullName(), number, err)
	}

	issue := mapIssue(raw)
	return &issue, nil
}

// FetchCommits lists recent commits on the tracked branch, newest first.
func (c *Client) FetchCommits(ctx context.Context, repo model.RepositoryContext) ([]model.CommitSummary, error) {
	opts := &gh.CommitsListOptions{
		SHA:         repo.Branch,
		ListOptions: gh.ListOptions{PerPage: commitWindow},
	}

	var raw []*gh.RepositoryCommit
	err := c.withReadRetry(ctx, func(ctx context.Context) error {
		commits, resp, err := c.gh.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return err
		}
		logRateLimit(resp, repo.FullName()+"/commits", len(commits))
		raw = commits
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing commits for %s@%s: %w", repo.FullName(), repo.Branch, err)
	}

	commits := make([]model.CommitSummary, 0, len(raw))
	for _, commit := range raw {
		commits = append(commits, mapCommit(commit))
	}

	return commits, nil
}

// FetchComments lists comments on a PR or issue, oldest first. PR-level
// comments come through the issues API, which covers both entity kinds.
func (c *Client) FetchComments(ctx context.Context, repo model.RepositoryContext, ref model.EntityRef) ([]model.Comment, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: listWindow},
	}

	var raw []*gh.IssueComment
	err := c.withReadRetry(ctx, func(ctx context.Context) error {
		comments, _, err := c.gh.Issues.ListComments(ctx, repo.Owner, repo.Name, ref.Number, opts)
		if err != nil {
			return err
		}
		raw = comments
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing comments for %s %s: %w", repo.FullName(), ref, err)
	}

	comments := make([]model.Comment, 0, len(raw))
	for _, comment := range raw {
		comments = append(comments, mapComment(comment, ref))
	}

	return comments, nil
}
