package model

import "fmt"

// ActionKind enumerates the user-initiated mutating actions the dispatcher
// accepts.
type ActionKind string

const (
	ActionApprove        ActionKind = "approve"
	ActionRequestChanges ActionKind = "request_changes"
	ActionMerge          ActionKind = "merge"
	ActionComment        ActionKind = "comment"
	ActionClose          ActionKind = "close"
	ActionReopen         ActionKind = "reopen"
	ActionReact          ActionKind = "react"
)

// ActionClass groups action kinds that contend for the same in-flight slot on
// a target. A second action in the same class on the same target is rejected
// while one is outstanding.
type ActionClass string

const (
	ActionClassReview  ActionClass = "review"
	ActionClassMerge   ActionClass = "merge"
	ActionClassComment ActionClass = "comment"
	ActionClassState   ActionClass = "state"
	ActionClassReact   ActionClass = "react"
)

// Class returns the in-flight contention class for the action kind.
func (k ActionKind) Class() ActionClass {
	switch k {
	case ActionApprove, ActionRequestChanges:
		return ActionClassReview
	case ActionMerge:
		return ActionClassMerge
	case ActionComment:
		return ActionClassComment
	case ActionClose, ActionReopen:
		return ActionClassState
	case ActionReact:
		return ActionClassReact
	}
	return ActionClass(k)
}

// EntityRef identifies an actionable entity within the active repository.
type EntityRef struct {
	Kind   EntityKind
	Number int
}

// String renders the reference for logs and error messages.
func (r EntityRef) String() string {
	if r.Kind == EntityKindPullRequest {
		return fmt.Sprintf("PR#%d", r.Number)
	}
	return fmt.Sprintf("issue#%d", r.Number)
}

// ReactionTarget selects what a reaction attaches to.
type ReactionTarget string

const (
	ReactionTargetEntity      ReactionTarget = "entity"       // The issue or PR itself.
	ReactionTargetLastComment ReactionTarget = "last_comment" // Most recent comment on it.
)

// validReactions is GitHub's fixed reaction content set.
var validReactions = map[string]struct{}{
	"+1": {}, "-1": {}, "laugh": {}, "confused": {},
	"heart": {}, "hooray": {}, "rocket": {}, "eyes": {},
}

// ActionRequest is a transient description of one mutating command. It exists
// only for the duration of dispatch.
type ActionRequest struct {
	Target      EntityRef
	Kind        ActionKind
	Body        string         // Comment or review body.
	MergeMethod string         // "merge", "squash", or "rebase"; empty defaults to "merge".
	Reaction    string         // Reaction content ("+1", "heart", ...).
	ReactTo     ReactionTarget // Where a reaction lands; defaults to the entity.
}

// Validate checks structural requirements before dispatch.
func (a ActionRequest) Validate() error {
	if a.Target.Number <= 0 {
		return fmt.Errorf("action target missing: %s", a.Target)
	}
	switch a.Kind {
	case ActionApprove, ActionRequestChanges, ActionMerge:
		if a.Target.Kind != EntityKindPullRequest {
			return fmt.Errorf("%s applies only to pull requests", a.Kind)
		}
	case ActionComment:
		if a.Body == "" {
			return fmt.Errorf("comment body required")
		}
	case ActionClose, ActionReopen:
	case ActionReact:
		if a.Reaction == "" {
			return fmt.Errorf("reaction content required")
		}
		if _, ok := validReactions[a.Reaction]; !ok {
			return fmt.Errorf("unknown reaction %q", a.Reaction)
		}
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

// UpdatedEntity is the authoritative server state returned by a successful
// dispatch: the affected entity plus any newly created sub-entity.
type UpdatedEntity struct {
	PullRequest *PullRequest
	Issue       *Issue
	Comment     *Comment
}
