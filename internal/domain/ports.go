package domain

import (
	"context"
	"time"
)

// StoreInitializer initializes the data store.
type StoreInitializer interface {
	// Initialize creates the store files if they don't exist.
	Initialize() error
}

// TaskStore manages durable task records. Implementations must keep
// file order stable across Load/Save round-trips: the selector treats
// store order as operator-declared priority.
type TaskStore interface {
	// Load reads all active task records. It rejects the whole store
	// with ErrStoreCorrupt on any malformed, duplicate or orphaned
	// record rather than silently dropping lines.
	Load() ([]*Task, error)

	// Save atomically rewrites the active collection, preserving order.
	Save(tasks []*Task) error

	// Archive appends a completed record to the archive and removes the
	// task from the active collection. Archive-then-remove: a crash in
	// between duplicates the record instead of losing it.
	Archive(task *Task, commitRef string, completedAt time.Time) error

	// ArchivedIDs returns the set of identifiers in the archive.
	ArchivedIDs() (map[string]bool, error)

	// LoadArchive reads all archived records in append order.
	LoadArchive() ([]ArchivedTask, error)
}

// Git drives the branch-per-task workflow against one local repository.
type Git interface {
	// CurrentBranch returns the name of the checked-out branch.
	CurrentBranch() (string, error)

	// BranchExists checks whether a local branch exists.
	BranchExists(branch string) (bool, error)

	// CreateBranch creates and checks out a new branch off the current
	// HEAD. Returns ErrBranchExists if the name is taken.
	CreateBranch(branch string) error

	// Checkout switches to an existing branch.
	Checkout(branch string) error

	// SquashMerge squash-merges branch into the checked-out branch and
	// commits with message. Returns the short hash of the new commit,
	// or ErrMergeConflict if the squash conflicts.
	SquashMerge(branch, message string) (string, error)

	// HasStagedChanges reports whether the index differs from HEAD.
	HasStagedChanges() (bool, error)

	// DeleteBranch deletes a branch; force uses -D.
	DeleteBranch(branch string, force bool) error

	// CommitsAhead counts commits reachable from branch but not from
	// base.
	CommitsAhead(branch, base string) (int, error)
}

// Agent invokes the external coding agent. One call per iteration,
// blocking until the agent exits.
type Agent interface {
	Invoke(ctx context.Context, prompt string) (*InvokeResult, error)
}

// RoleSource loads role content by name. Content is read fresh on every
// call so edits take effect mid-run.
type RoleSource interface {
	Load(name string) (*Role, error)
}

// ConfigLoader loads the application configuration.
type ConfigLoader interface {
	Load() (*Config, error)
}

// StopSignal checks for the operator's graceful-stop request. It is
// consulted only between iterations, never mid-invocation.
type StopSignal interface {
	// Requested reports whether a stop has been requested.
	Requested() bool

	// Clear removes the stop request.
	Clear() error

	// Set records a stop request.
	Set() error
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep pauses for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration)
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleep pauses for d or until ctx is done.
func (RealClock) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
