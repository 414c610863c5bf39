// Package domain contains core business entities and interfaces.
package domain

import "time"

// Task represents a unit of work driven by the loop.
// Fields are ordered to minimize memory padding.
type Task struct {
	ID            string `json:"id"`                       // Dotted hierarchical identifier (e.g. "A", "A.1.2")
	Title         string `json:"title"`                    // Short human-readable description
	Status        Status `json:"status"`                   // Current lifecycle state
	BlockedReason string `json:"blocked_reason,omitempty"` // Set only while Status is blocked
	Commit        string `json:"commit,omitempty"`         // Closing commit, recorded before archival
	Leaf          bool   `json:"leaf"`                     // True when directly workable
}

// ParentID returns the parent identifier (all segments but the last),
// or "" for a root task. It is derived, never stored.
func (t *Task) ParentID() string {
	return ParentID(t.ID)
}

// IsRoot returns true if this is a root task.
func (t *Task) IsRoot() bool {
	return ParentID(t.ID) == ""
}

// Workable returns true if the task can be picked up by the selector.
func (t *Task) Workable() bool {
	return t.Leaf && t.Status == StatusPending
}

// ArchivedTask is an append-only archive record for a finished task.
type ArchivedTask struct {
	Task
	Completed string `json:"completed"` // Completion date, RFC 3339
}

// NewArchivedTask builds the archive record for a task closed by commitRef.
func NewArchivedTask(t *Task, commitRef string, completedAt time.Time) ArchivedTask {
	rec := ArchivedTask{Task: *t, Completed: completedAt.Format(time.RFC3339)}
	if rec.Commit == "" {
		rec.Commit = commitRef
	}
	return rec
}

// Role is a named behavioral mode handed to the agent for one iteration.
// Roles are loaded fresh each time they are selected, never cached.
type Role struct {
	Name    string
	Content string
}
