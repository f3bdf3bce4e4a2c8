package model

import "time"

// Comment is a PR-level or issue-level comment. Comments are append-only from
// the engine's perspective: once created they are never locally edited.
type Comment struct {
	ID        int64
	Parent    EntityRef
	Author    string
	Body      string
	CreatedAt time.Time
}
