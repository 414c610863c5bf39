package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/musher-dev/musher/internal/domain"
)

// AddTaskInput contains the parameters for adding a task.
type AddTaskInput struct {
	Title  string // Task title
	Parent string // Parent task ID, empty for a new root
}

// AddTaskOutput contains the result of adding a task.
type AddTaskOutput struct {
	Task *domain.Task // The created task
}

// AddTask is the use case for seeding a task into the store.
type AddTask struct {
	store domain.TaskStore
}

// NewAddTask creates a new AddTask use case.
func NewAddTask(store domain.TaskStore) *AddTask {
	return &AddTask{store: store}
}

// Execute appends a pending leaf task. Child identifiers are allocated
// past every index ever used, including archived ones, so IDs are never
// reused. Adding a child under a workable parent converts the parent to
// a split non-leaf: the children now carry the work and the parent gets
// a verify pass once they settle.
func (uc *AddTask) Execute(_ context.Context, in AddTaskInput) (*AddTaskOutput, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}

	tasks, err := uc.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	archived, err := uc.store.ArchivedIDs()
	if err != nil {
		return nil, fmt.Errorf("load archive ids: %w", err)
	}

	if in.Parent != "" {
		if !domain.ValidTaskID(in.Parent) {
			return nil, fmt.Errorf("parent %q: %w", in.Parent, domain.ErrInvalidTaskID)
		}
		parent := domain.ByID(in.Parent, tasks)
		if parent == nil {
			return nil, fmt.Errorf("parent %q: %w", in.Parent, domain.ErrParentNotFound)
		}
		if parent.Leaf {
			parent.Leaf = false
		}
		if parent.Status == domain.StatusPending || parent.Status == domain.StatusActive {
			parent.Status = domain.StatusSplit
		}
	}

	task := &domain.Task{
		ID:     domain.NextChildID(in.Parent, tasks, archived),
		Title:  title,
		Status: domain.StatusPending,
		Leaf:   true,
	}
	tasks = append(tasks, task)

	if err := uc.store.Save(tasks); err != nil {
		return nil, fmt.Errorf("save tasks: %w", err)
	}
	return &AddTaskOutput{Task: task}, nil
}
