package model

import (
	"fmt"
	"strings"
)

// RepositoryContext identifies the single repository a session operates on.
// It is immutable for the lifetime of a session; switching contexts rebuilds
// the entity cache from empty.
type RepositoryContext struct {
	Owner     string
	Name      string
	Branch    string // Branch whose commits are tracked; defaults to "main".
	LocalPath string // Local working copy, used only by the version/push workflow.
}

// FullName returns the "owner/name" form used by the GitHub API.
func (r RepositoryContext) FullName() string {
	return r.Owner + "/" + r.Name
}

// Validate checks that owner and name are present.
func (r RepositoryContext) Validate() error {
	if r.Owner == "" || r.Name == "" {
		return fmt.Errorf("repository context incomplete: owner=%q name=%q", r.Owner, r.Name)
	}
	return nil
}

// ParseRepoFullName splits an "owner/name" string into a RepositoryContext.
func ParseRepoFullName(fullName string) (RepositoryContext, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryContext{}, fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return RepositoryContext{Owner: parts[0], Name: parts[1]}, nil
}
