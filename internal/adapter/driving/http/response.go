package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/repodeck/internal/application"
	"github.com/ericfisherdev/repodeck/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SnapshotResponse is the JSON representation of a full cache snapshot.
type SnapshotResponse struct {
	Generation     uint64                       `json:"generation"`
	Repository     string                       `json:"repository"`
	Branch         string                       `json:"branch"`
	SyncStatus     string                       `json:"sync_status"`
	LastError      string                       `json:"last_error,omitempty"`
	LastRefreshed  string                       `json:"last_refreshed,omitempty"`
	Activity       ActivityResponse             `json:"activity"`
	PullRequests   []PRResponse                 `json:"pull_requests"`
	Issues         []IssueResponse              `json:"issues"`
	Commits        []CommitResponse             `json:"commits"`
	Comments       map[string][]CommentResponse `json:"comments,omitempty"`
	AcknowledgedAt string                       `json:"acknowledged_at,omitempty"`
}

// ActivityResponse is the JSON representation of the activity badge counts.
type ActivityResponse struct {
	OpenPRs    int `json:"open_prs"`
	OpenIssues int `json:"open_issues"`
	NewCommits int `json:"new_commits"`
}

// PRResponse is the JSON representation of a pull request.
type PRResponse struct {
	Number           int    `json:"number"`
	Title            string `json:"title"`
	State            string `json:"state"`
	Author           string `json:"author"`
	HeadRef          string `json:"head_ref"`
	BaseRef          string `json:"base_ref"`
	URL              string `json:"url"`
	IsDraft          bool   `json:"is_draft"`
	Mergeable        string `json:"mergeable"`
	Approvals        int    `json:"approvals"`
	ChangesRequested int    `json:"changes_requested"`
	ReviewComments   int    `json:"review_comments"`
	OpenedAt         string `json:"opened_at"`
	UpdatedAt        string `json:"updated_at"`
}

// IssueResponse is the JSON representation of an issue.
type IssueResponse struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	Author    string   `json:"author"`
	Labels    []string `json:"labels"`
	URL       string   `json:"url"`
	UpdatedAt string   `json:"updated_at"`
}

// CommitResponse is the JSON representation of a recent commit.
type CommitResponse struct {
	SHA       string `json:"sha"`
	ShortSHA  string `json:"short_sha"`
	Message   string `json:"message"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

// CommentResponse is the JSON representation of a PR/issue comment.
type CommentResponse struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// ActionRequest is the JSON body for the dispatch endpoint.
type ActionRequest struct {
	TargetKind  string `json:"target_kind"` // "pull_request" or "issue".
	Number      int    `json:"number"`
	Kind        string `json:"kind"`
	Body        string `json:"body,omitempty"`
	MergeMethod string `json:"merge_method,omitempty"`
	Reaction    string `json:"reaction,omitempty"`
	ReactTo     string `json:"react_to,omitempty"` // "entity" or "last_comment".
}

// ActionResponse reports the confirmed result of a dispatched action.
type ActionResponse struct {
	PullRequest *PRResponse      `json:"pull_request,omitempty"`
	Issue       *IssueResponse   `json:"issue,omitempty"`
	Comment     *CommentResponse `json:"comment,omitempty"`
}

// SetCredentialsRequest is the JSON body for the credential update endpoint.
// The token is accepted but never echoed back.
type SetCredentialsRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toSnapshotResponse converts a cache snapshot to its JSON representation.
func toSnapshotResponse(snap *application.Snapshot) SnapshotResponse {
	prs := make([]PRResponse, 0, len(snap.PullRequests))
	for _, pr := range snap.PullRequests {
		prs = append(prs, toPRResponse(pr))
	}

	issues := make([]IssueResponse, 0, len(snap.Issues))
	for _, issue := range snap.Issues {
		issues = append(issues, toIssueResponse(issue))
	}

	commits := make([]CommitResponse, 0, len(snap.Commits))
	for _, commit := range snap.Commits {
		commits = append(commits, toCommitResponse(commit))
	}

	var comments map[string][]CommentResponse
	if len(snap.Comments) > 0 {
		comments = make(map[string][]CommentResponse, len(snap.Comments))
		for key, list := range snap.Comments {
			converted := make([]CommentResponse, 0, len(list))
			for _, comment := range list {
				converted = append(converted, toCommentResponse(comment))
			}
			comments[key] = converted
		}
	}

	resp := SnapshotResponse{
		Generation:   snap.Generation,
		Repository:   snap.Context.FullName(),
		Branch:       snap.Context.Branch,
		SyncStatus:   string(snap.SyncStatus),
		LastError:    snap.LastError,
		Activity:     toActivityResponse(snap.Activity),
		PullRequests: prs,
		Issues:       issues,
		Commits:      commits,
		Comments:     comments,
	}
	if !snap.LastRefreshed.IsZero() {
		resp.LastRefreshed = snap.LastRefreshed.UTC().Format(time.RFC3339)
	}
	if !snap.AcknowledgedAt.IsZero() {
		resp.AcknowledgedAt = snap.AcknowledgedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toActivityResponse(a model.Activity) ActivityResponse {
	return ActivityResponse{
		OpenPRs:    a.OpenPRs,
		OpenIssues: a.OpenIssues,
		NewCommits: a.NewCommits,
	}
}

func toPRResponse(pr model.PullRequest) PRResponse {
	return PRResponse{
		Number:           pr.Number,
		Title:            pr.Title,
		State:            string(pr.State),
		Author:           pr.Author,
		HeadRef:          pr.HeadRef,
		BaseRef:          pr.BaseRef,
		URL:              pr.URL,
		IsDraft:          pr.IsDraft,
		Mergeable:        string(pr.Mergeable),
		Approvals:        pr.Reviews.Approvals,
		ChangesRequested: pr.Reviews.ChangesRequested,
		ReviewComments:   pr.Reviews.Comments,
		OpenedAt:         pr.OpenedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        pr.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toIssueResponse(issue model.Issue) IssueResponse {
	labels := issue.Labels
	if labels == nil {
		labels = []string{}
	}
	return IssueResponse{
		Number:    issue.Number,
		Title:     issue.Title,
		State:     string(issue.State),
		Author:    issue.Author,
		Labels:    labels,
		URL:       issue.URL,
		UpdatedAt: issue.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toCommitResponse(commit model.CommitSummary) CommitResponse {
	return CommitResponse{
		SHA:       commit.SHA,
		ShortSHA:  commit.ShortSHA(),
		Message:   commit.Message,
		Author:    commit.Author,
		Timestamp: commit.Timestamp.UTC().Format(time.RFC3339),
	}
}

func toCommentResponse(comment model.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		Author:    comment.Author,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toActionResponse converts a confirmed dispatch result to its JSON form.
func toActionResponse(updated *model.UpdatedEntity) ActionResponse {
	var resp ActionResponse
	if updated.PullRequest != nil {
		pr := toPRResponse(*updated.PullRequest)
		resp.PullRequest = &pr
	}
	if updated.Issue != nil {
		issue := toIssueResponse(*updated.Issue)
		resp.Issue = &issue
	}
	if updated.Comment != nil {
		comment := toCommentResponse(*updated.Comment)
		resp.Comment = &comment
	}
	return resp
}
