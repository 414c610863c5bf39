package usecase

import (
	"context"
	"fmt"

	"github.com/musher-dev/musher/internal/domain"
)

// UnblockTaskInput contains the parameters for unblocking a task.
type UnblockTaskInput struct {
	TaskID string // Blocked task to reset
}

// UnblockTaskOutput contains the result of unblocking a task.
type UnblockTaskOutput struct {
	Task *domain.Task // The reset task
}

// UnblockTask is the use case for returning a blocked task to the
// selector's view after operator triage.
type UnblockTask struct {
	store domain.TaskStore
}

// NewUnblockTask creates a new UnblockTask use case.
func NewUnblockTask(store domain.TaskStore) *UnblockTask {
	return &UnblockTask{store: store}
}

// Execute resets a blocked task to pending and clears its reason.
func (uc *UnblockTask) Execute(_ context.Context, in UnblockTaskInput) (*UnblockTaskOutput, error) {
	tasks, err := uc.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	task := domain.ByID(in.TaskID, tasks)
	if task == nil {
		return nil, fmt.Errorf("task %q: %w", in.TaskID, domain.ErrTaskNotFound)
	}
	if task.Status != domain.StatusBlocked {
		return nil, fmt.Errorf("task %q is %s: %w", in.TaskID, task.Status, domain.ErrNotBlocked)
	}

	task.Status = domain.StatusPending
	task.BlockedReason = ""
	if err := uc.store.Save(tasks); err != nil {
		return nil, fmt.Errorf("save tasks: %w", err)
	}
	return &UnblockTaskOutput{Task: task}, nil
}
