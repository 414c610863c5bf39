// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/musher-dev/musher/internal/domain"
)

// MockClock is a test double for domain.Clock. Sleep returns
// immediately and records requested durations.
type MockClock struct {
	NowTime time.Time
	Slept   []time.Duration
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// Sleep records the duration without waiting.
func (m *MockClock) Sleep(_ context.Context, d time.Duration) {
	m.Slept = append(m.Slept, d)
}

// MockTaskStore is an in-memory test double for domain.TaskStore.
type MockTaskStore struct {
	Tasks      []*domain.Task
	Archived   []domain.ArchivedTask
	LoadErr    error
	SaveErr    error
	ArchiveErr error
	SaveCount  int
}

// NewMockTaskStore creates a store seeded with the given tasks.
func NewMockTaskStore(tasks ...*domain.Task) *MockTaskStore {
	return &MockTaskStore{Tasks: tasks}
}

// Load returns copies of the active records so callers cannot mutate
// the store through a stale slice.
func (m *MockTaskStore) Load() ([]*domain.Task, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	out := make([]*domain.Task, len(m.Tasks))
	for i, t := range m.Tasks {
		copied := *t
		out[i] = &copied
	}
	return out, nil
}

// Save replaces the active collection.
func (m *MockTaskStore) Save(tasks []*domain.Task) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.SaveCount++
	out := make([]*domain.Task, len(tasks))
	for i, t := range tasks {
		copied := *t
		out[i] = &copied
	}
	m.Tasks = out
	return nil
}

// Archive appends to the archive and removes the task from the active
// collection, mirroring the real store's ordering.
func (m *MockTaskStore) Archive(task *domain.Task, commitRef string, completedAt time.Time) error {
	if m.ArchiveErr != nil {
		return m.ArchiveErr
	}
	m.Archived = append(m.Archived, domain.NewArchivedTask(task, commitRef, completedAt))
	kept := m.Tasks[:0]
	for _, t := range m.Tasks {
		if t.ID != task.ID {
			kept = append(kept, t)
		}
	}
	m.Tasks = kept
	return nil
}

// ArchivedIDs returns the set of archived identifiers.
func (m *MockTaskStore) ArchivedIDs() (map[string]bool, error) {
	ids := make(map[string]bool, len(m.Archived))
	for _, a := range m.Archived {
		ids[a.ID] = true
	}
	return ids, nil
}

// LoadArchive returns the archived records in append order.
func (m *MockTaskStore) LoadArchive() ([]domain.ArchivedTask, error) {
	return append([]domain.ArchivedTask(nil), m.Archived...), nil
}

// Get returns the live record with the given ID, or nil.
func (m *MockTaskStore) Get(id string) *domain.Task {
	for _, t := range m.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// MockGit is a recording test double for domain.Git.
// Fields are ordered to minimize memory padding.
type MockGit struct {
	Branches        map[string]bool
	Ahead           map[string]int
	Branch          string
	MergedBranch    string
	MergeMessage    string
	MergeHash       string
	DeletedBranches []string
	Checkouts       []string
	CreateErr       error
	MergeErr        error
	CheckoutErr     error
	DeleteErr       error
	Staged          bool
}

// NewMockGit creates a git double checked out on branch with the branch
// registered as existing.
func NewMockGit(branch string) *MockGit {
	return &MockGit{
		Branch:    branch,
		Branches:  map[string]bool{branch: true},
		Ahead:     map[string]int{},
		MergeHash: "abc1234",
	}
}

// CurrentBranch returns the checked-out branch.
func (m *MockGit) CurrentBranch() (string, error) {
	return m.Branch, nil
}

// BranchExists checks the registered branch set.
func (m *MockGit) BranchExists(branch string) (bool, error) {
	return m.Branches[branch], nil
}

// CreateBranch registers and checks out a new branch.
func (m *MockGit) CreateBranch(branch string) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.Branches[branch] {
		return domain.ErrBranchExists
	}
	m.Branches[branch] = true
	m.Branch = branch
	return nil
}

// Checkout switches to an existing branch.
func (m *MockGit) Checkout(branch string) error {
	if m.CheckoutErr != nil {
		return m.CheckoutErr
	}
	if !m.Branches[branch] {
		return fmt.Errorf("checkout %s: branch not found", branch)
	}
	m.Checkouts = append(m.Checkouts, branch)
	m.Branch = branch
	return nil
}

// SquashMerge records the merge and returns the scripted hash.
func (m *MockGit) SquashMerge(branch, message string) (string, error) {
	if m.MergeErr != nil {
		return "", m.MergeErr
	}
	m.MergedBranch = branch
	m.MergeMessage = message
	return m.MergeHash, nil
}

// HasStagedChanges returns the scripted value.
func (m *MockGit) HasStagedChanges() (bool, error) {
	return m.Staged, nil
}

// DeleteBranch unregisters the branch.
func (m *MockGit) DeleteBranch(branch string, _ bool) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Branches, branch)
	m.DeletedBranches = append(m.DeletedBranches, branch)
	return nil
}

// CommitsAhead returns the scripted count for branch.
func (m *MockGit) CommitsAhead(branch, _ string) (int, error) {
	return m.Ahead[branch], nil
}

// MockAgent is a scripted test double for domain.Agent. Each Invoke
// consumes the next result; an exhausted script repeats the last one.
type MockAgent struct {
	Results []*domain.InvokeResult
	Err     error
	Prompts []string
	Calls   int
	// OnInvoke, when set, runs before each result is returned. Tests use
	// it to mutate the store mid-loop the way a real agent would.
	OnInvoke func(call int)
}

// Invoke records the prompt and returns the next scripted result.
func (m *MockAgent) Invoke(_ context.Context, prompt string) (*domain.InvokeResult, error) {
	call := m.Calls
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	if m.OnInvoke != nil {
		m.OnInvoke(call)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Results) == 0 {
		return &domain.InvokeResult{Output: "ok", ExitCode: 0}, nil
	}
	idx := call
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	}
	return m.Results[idx], nil
}

// MockRoleSource is a test double for domain.RoleSource.
type MockRoleSource struct {
	Roles   map[string]string
	LoadErr error
}

// Load returns the configured content for name.
func (m *MockRoleSource) Load(name string) (*domain.Role, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	content, ok := m.Roles[name]
	if !ok {
		return nil, fmt.Errorf("role %q not found", name)
	}
	return &domain.Role{Name: name, Content: content}, nil
}

// MockStopSignal is a test double for domain.StopSignal.
type MockStopSignal struct {
	// StopAfter makes Requested return true once it has been called more
	// than this many times. Zero means never.
	StopAfter int
	Requests  int
	Cleared   int
	Stopped   bool // explicit request via Set, erased by Clear
}

// Requested reports the scripted stop state.
func (m *MockStopSignal) Requested() bool {
	m.Requests++
	if m.Stopped {
		return true
	}
	return m.StopAfter > 0 && m.Requests > m.StopAfter
}

// Clear erases an explicit stop request. Scripted StopAfter behavior
// survives clearing so tests can stop a running loop.
func (m *MockStopSignal) Clear() error {
	m.Cleared++
	m.Stopped = false
	return nil
}

// Set records an explicit stop request.
func (m *MockStopSignal) Set() error {
	m.Stopped = true
	return nil
}
