package domain

import "errors"

// Domain errors.
var (
	ErrStoreCorrupt    = errors.New("task store is corrupt")
	ErrTaskNotFound    = errors.New("task not found")
	ErrParentNotFound  = errors.New("parent task not found")
	ErrBranchExists    = errors.New("branch already exists")
	ErrMergeConflict   = errors.New("squash merge produced conflicts")
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrInvalidTaskID   = errors.New("invalid task id")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNotInitialized  = errors.New("musher not initialized (run 'musher init' first)")
	ErrNotGitRepo      = errors.New("not a git repository (or any of the parent directories)")
	ErrAgentAuth       = errors.New("agent authentication failure")
	ErrTooManyFailures = errors.New("too many consecutive agent failures")
	ErrNotBlocked      = errors.New("task is not blocked")
)
