package usecase

import (
	"context"
	"fmt"

	"github.com/musher-dev/musher/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	IncludeDone bool // Also return the archive
}

// ListTasksOutput contains the listed tasks.
type ListTasksOutput struct {
	Tasks []*domain.Task        // Active tasks in store (priority) order
	Done  []domain.ArchivedTask // Archived tasks, oldest first
}

// ListTasks is the use case for inspecting the task store.
type ListTasks struct {
	store domain.TaskStore
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(store domain.TaskStore) *ListTasks {
	return &ListTasks{store: store}
}

// Execute returns the active tasks, and the archive when requested.
// Store order is preserved: it is the operator's priority order.
func (uc *ListTasks) Execute(_ context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	tasks, err := uc.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	out := &ListTasksOutput{Tasks: tasks}

	if in.IncludeDone {
		done, err := uc.store.LoadArchive()
		if err != nil {
			return nil, fmt.Errorf("load archive: %w", err)
		}
		out.Done = done
	}
	return out, nil
}
