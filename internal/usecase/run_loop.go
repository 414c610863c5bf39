// Package usecase contains the application use cases.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/musher-dev/musher/internal/domain"
	"github.com/musher-dev/musher/internal/trigger"
)

// RunLoopInput contains the parameters for running the loop.
type RunLoopInput struct {
	Daemon bool // Poll for new tasks instead of exiting when idle
}

// RunLoopOutput contains the result of a loop run.
type RunLoopOutput struct {
	Completed int  // Tasks merged and archived
	Split     int  // Tasks decomposed into children
	Blocked   int  // Tasks left blocked for operator triage
	Abandoned int  // Tasks that disappeared from the store mid-drive
	Stopped   bool // Exited on a stop request rather than idleness
}

// RunLoop drives workable tasks to a terminal outcome, one at a time.
// The git working tree is the serialization point: no two tasks are
// ever open concurrently against the same checkout.
// Fields are ordered to minimize memory padding.
type RunLoop struct {
	store    domain.TaskStore
	git      domain.Git
	agent    domain.Agent
	roles    domain.RoleSource
	triggers *trigger.Engine
	stop     domain.StopSignal
	clock    domain.Clock
	logger   *slog.Logger
	cfg      *domain.Config
}

// NewRunLoop creates a new RunLoop use case.
func NewRunLoop(
	store domain.TaskStore,
	git domain.Git,
	agent domain.Agent,
	roles domain.RoleSource,
	triggers *trigger.Engine,
	stop domain.StopSignal,
	clock domain.Clock,
	logger *slog.Logger,
	cfg *domain.Config,
) *RunLoop {
	return &RunLoop{
		store:    store,
		git:      git,
		agent:    agent,
		roles:    roles,
		triggers: triggers,
		stop:     stop,
		clock:    clock,
		logger:   logger,
		cfg:      cfg,
	}
}

// passOutcome is how one drive of a single task ended.
type passOutcome int

const (
	outcomeCompleted passOutcome = iota
	outcomeSplit
	outcomeBlocked
	outcomeAbandoned
	outcomeStopped
)

// loopState carries counters that survive across tasks within one run.
type loopState struct {
	// consecutiveFailures counts failed agent invocations across any
	// task, not just the current one. It protects against retrying
	// forever when the agent is broken.
	consecutiveFailures int
}

// Execute runs the loop until idle (single-pass mode), forever (daemon
// mode), or until a stop request or fatal error. Store corruption, auth
// failures and the consecutive-failure limit are fatal; everything else
// is logged and worked around.
func (uc *RunLoop) Execute(ctx context.Context, in RunLoopInput) (*RunLoopOutput, error) {
	// A stop file left over from a previous run must not kill this one
	// before it starts.
	if err := uc.stop.Clear(); err != nil {
		return nil, fmt.Errorf("clear stale stop signal: %w", err)
	}

	out := &RunLoopOutput{}
	st := &loopState{}

	for {
		if ctx.Err() != nil {
			out.Stopped = true
			return out, nil
		}
		if uc.stop.Requested() {
			uc.logger.Info("stop requested, exiting")
			if err := uc.stop.Clear(); err != nil {
				uc.logger.Warn("clear stop signal", "error", err)
			}
			out.Stopped = true
			return out, nil
		}

		tasks, err := uc.store.Load()
		if err != nil {
			return out, fmt.Errorf("load tasks: %w", err)
		}
		archived, err := uc.store.ArchivedIDs()
		if err != nil {
			return out, fmt.Errorf("load archive ids: %w", err)
		}

		task, mode := domain.NextWorkable(tasks, archived)
		if task == nil {
			if !in.Daemon {
				return out, nil
			}
			uc.logger.Debug("no workable task, polling")
			uc.clock.Sleep(ctx, uc.cfg.Loop.PollInterval)
			continue
		}

		uc.logger.Info("driving task",
			"task", task.ID, "title", task.Title, "mode", string(mode))
		outcome, err := uc.drive(ctx, st, task, mode)
		if err != nil {
			return out, err
		}
		switch outcome {
		case outcomeCompleted:
			out.Completed++
		case outcomeSplit:
			out.Split++
		case outcomeBlocked:
			out.Blocked++
		case outcomeAbandoned:
			out.Abandoned++
		case outcomeStopped:
			out.Stopped = true
			return out, nil
		}
	}
}

// drive runs one task to a terminal outcome: completed, split, blocked,
// or stopped mid-flight. The task's branch stays open on stop so a
// later run resumes it.
func (uc *RunLoop) drive(ctx context.Context, st *loopState, task *domain.Task, mode domain.Mode) (passOutcome, error) {
	// Claim the task so a crashed run can find it again. Verify passes
	// leave the parent's split status alone: that status is what makes
	// the selector offer it for verification.
	if mode == domain.ModeWork && task.Status != domain.StatusActive {
		if err := uc.setStatus(task.ID, domain.StatusActive, ""); err != nil {
			return 0, err
		}
	}

	branch := domain.BranchName(task.ID, task.Title)
	if err := uc.openBranch(task, branch); err != nil {
		if errors.Is(err, domain.ErrBranchExists) {
			uc.logger.Warn("branch collision, blocking task",
				"task", task.ID, "branch", branch)
			if serr := uc.setStatus(task.ID, domain.StatusBlocked, "branch already exists: "+branch); serr != nil {
				return 0, serr
			}
			return outcomeBlocked, nil
		}
		return 0, err
	}

	// baselineChildren detects children added during a verify pass.
	baselineChildren := uc.countChildren(task.ID)

	lastFailed := false
	transientStreak := 0
	finalReviewDone := false
	appliedAt := map[string]int{}

	for i := 0; i < uc.cfg.Loop.MaxIterations; i++ {
		if ctx.Err() != nil || uc.stop.Requested() {
			return outcomeStopped, nil
		}

		// The agent writes the store directly, so every decision starts
		// from a fresh read.
		tasks, err := uc.store.Load()
		if err != nil {
			return 0, fmt.Errorf("load tasks: %w", err)
		}
		current := domain.ByID(task.ID, tasks)
		if current == nil {
			uc.logger.Warn("task disappeared from store, abandoning branch",
				"task", task.ID, "branch", branch)
			if err := uc.abandonBranch(branch); err != nil {
				return 0, err
			}
			return outcomeAbandoned, nil
		}

		if current.Status == domain.StatusSplit {
			if mode == domain.ModeWork {
				return uc.splitMerge(current, branch)
			}
			// Verify pass: a split parent is the expected starting state.
			// Fresh children mean the agent chose to decompose further.
			if n := len(domain.ChildrenOf(task.ID, tasks)); n > baselineChildren {
				uc.logger.Info("verify pass added children",
					"task", task.ID, "children", n-baselineChildren)
				return uc.splitMerge(current, branch)
			}
		}
		if current.Status == domain.StatusBlocked {
			uc.logger.Warn("task blocked by agent, leaving branch for triage",
				"task", current.ID, "reason", current.BlockedReason)
			if err := uc.git.Checkout(uc.cfg.Git.IntegrationBranch); err != nil {
				return 0, fmt.Errorf("checkout %s: %w", uc.cfg.Git.IntegrationBranch, err)
			}
			return outcomeBlocked, nil
		}

		tctx := uc.buildContext(current, branch, i, lastFailed, appliedAt)
		roleName, matched := uc.triggers.SelectRole(tctx)

		if current.Status == domain.StatusComplete {
			// A trigger that fires because the task was marked ready to
			// complete (e.g. a reviewer role) gets one final invocation
			// before the merge. Triggers that would match regardless of
			// that flag do not hold up the merge.
			if finalReviewDone || !uc.reviewRequested(tctx) {
				return uc.finish(current, branch)
			}
			finalReviewDone = true
		}

		var role *domain.Role
		if matched {
			role, err = uc.roles.Load(roleName)
			if err != nil {
				uc.logger.Warn("role unavailable, proceeding without it",
					"role", roleName, "error", err)
				role = nil
			} else {
				appliedAt[roleName] = i
				uc.logger.Debug("role selected", "task", current.ID, "role", roleName)
			}
		}

		prompt := trigger.ComposePrompt(uc.basePrompt(current, mode), role)
		result, err := uc.agent.Invoke(ctx, prompt)
		if err != nil {
			return 0, fmt.Errorf("invoke agent: %w", err)
		}

		switch kind := domain.ClassifyFailure(result); kind {
		case domain.FailureNone:
			st.consecutiveFailures = 0
			transientStreak = 0
			lastFailed = false
		default:
			st.consecutiveFailures++
			lastFailed = true
			uc.logger.Warn("agent invocation failed",
				"task", current.ID, "kind", kind.String(),
				"exit_code", result.ExitCode,
				"consecutive", st.consecutiveFailures)
			if kind == domain.FailureAuth {
				return 0, domain.ErrAgentAuth
			}
			if st.consecutiveFailures >= uc.cfg.Loop.ConsecutiveFailureLimit {
				return 0, domain.ErrTooManyFailures
			}
			if kind == domain.FailureTransient {
				transientStreak++
				uc.clock.Sleep(ctx, domain.BackoffDelay(transientStreak))
			}
		}

		uc.clock.Sleep(ctx, uc.cfg.Loop.IterationDelay)
	}

	// The agent may have finished the task during the final permitted
	// invocation. One last read keeps that work from being discarded as
	// stuck.
	tasks, err := uc.store.Load()
	if err != nil {
		return 0, fmt.Errorf("load tasks: %w", err)
	}
	current := domain.ByID(task.ID, tasks)
	switch {
	case current == nil:
		if err := uc.abandonBranch(branch); err != nil {
			return 0, err
		}
		return outcomeAbandoned, nil
	case current.Status == domain.StatusComplete:
		// No iterations remain, so a completion review cannot run.
		return uc.finish(current, branch)
	case current.Status == domain.StatusSplit && mode == domain.ModeWork:
		return uc.splitMerge(current, branch)
	case current.Status == domain.StatusSplit && len(domain.ChildrenOf(task.ID, tasks)) > baselineChildren:
		return uc.splitMerge(current, branch)
	case current.Status == domain.StatusBlocked:
		uc.logger.Warn("task blocked by agent, leaving branch for triage",
			"task", current.ID, "reason", current.BlockedReason)
		if err := uc.git.Checkout(uc.cfg.Git.IntegrationBranch); err != nil {
			return 0, fmt.Errorf("checkout %s: %w", uc.cfg.Git.IntegrationBranch, err)
		}
		return outcomeBlocked, nil
	}
	return uc.handleStuck(task.ID, branch)
}

// reviewRequested reports whether role selection depends on the
// ready-to-complete flag for this context.
func (uc *RunLoop) reviewRequested(tctx *trigger.Context) bool {
	role, ok := uc.triggers.SelectRole(tctx)
	if !ok {
		return false
	}
	plain := *tctx
	plain.ReadyToComplete = false
	plainRole, plainOK := uc.triggers.SelectRole(&plain)
	return !plainOK || plainRole != role
}

// openBranch creates the task branch, or resumes an existing one left
// by an interrupted run. A branch this loop cannot account for is never
// reused or overwritten.
func (uc *RunLoop) openBranch(task *domain.Task, branch string) error {
	exists, err := uc.git.BranchExists(branch)
	if err != nil {
		return fmt.Errorf("check branch %s: %w", branch, err)
	}
	if exists {
		if task.Status == domain.StatusActive || task.Status == domain.StatusSplit {
			uc.logger.Info("resuming existing branch", "branch", branch)
			if err := uc.git.Checkout(branch); err != nil {
				return fmt.Errorf("checkout %s: %w", branch, err)
			}
			return nil
		}
		return fmt.Errorf("open %s: %w", branch, domain.ErrBranchExists)
	}
	if err := uc.git.CreateBranch(branch); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}

// buildContext assembles the ephemeral context triggers evaluate
// against. It is rebuilt from scratch every iteration.
func (uc *RunLoop) buildContext(task *domain.Task, branch string, iter int, lastFailed bool, appliedAt map[string]int) *trigger.Context {
	commits, err := uc.git.CommitsAhead(branch, uc.cfg.Git.IntegrationBranch)
	if err != nil {
		uc.logger.Warn("count branch commits", "branch", branch, "error", err)
		commits = 0
	}
	since := make(map[string]int, len(appliedAt))
	for role, at := range appliedAt {
		since[role] = iter - at
	}
	return &trigger.Context{
		TaskID:              task.ID,
		TaskTitle:           task.Title,
		BranchCommits:       commits,
		LastIterationFailed: lastFailed,
		ReadyToComplete:     task.Status == domain.StatusComplete,
		IterationsSinceRole: since,
	}
}

// finish squash-merges the task branch into the integration branch and
// archives the completed work. A merge conflict blocks the task and
// preserves the branch; it is never auto-resolved.
func (uc *RunLoop) finish(task *domain.Task, branch string) (passOutcome, error) {
	if err := uc.git.Checkout(uc.cfg.Git.IntegrationBranch); err != nil {
		return 0, fmt.Errorf("checkout %s: %w", uc.cfg.Git.IntegrationBranch, err)
	}

	msg := fmt.Sprintf("[%s] %s\n\nCompletes: %s", task.ID, task.Title, task.ID)
	hash, err := uc.git.SquashMerge(branch, msg)
	if err != nil {
		if errors.Is(err, domain.ErrMergeConflict) {
			uc.logger.Warn("squash merge conflict, blocking task",
				"task", task.ID, "branch", branch)
			if serr := uc.setStatus(task.ID, domain.StatusBlocked, "merge conflict on "+branch); serr != nil {
				return 0, serr
			}
			return outcomeBlocked, nil
		}
		return 0, fmt.Errorf("merge %s: %w", branch, err)
	}

	if err := uc.git.DeleteBranch(branch, true); err != nil {
		uc.logger.Warn("delete merged branch", "branch", branch, "error", err)
	}

	if err := uc.archiveCompleted(task, hash); err != nil {
		return 0, err
	}
	uc.logger.Info("task completed", "task", task.ID, "commit", hash)
	return outcomeCompleted, nil
}

// archiveCompleted moves finished records to the archive. A completed
// root takes its remaining descendants with it; each archived record
// carries its own closing commit when it has one, otherwise the root's.
func (uc *RunLoop) archiveCompleted(task *domain.Task, commitRef string) error {
	now := uc.clock.Now()

	if !task.IsRoot() {
		if err := uc.store.Archive(task, commitRef, now); err != nil {
			return fmt.Errorf("archive task %s: %w", task.ID, err)
		}
		return nil
	}

	tasks, err := uc.store.Load()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	for _, t := range domain.SubtreeOf(task.ID, tasks) {
		ref := t.Commit
		if ref == "" {
			ref = commitRef
		}
		if err := uc.store.Archive(t, ref, now); err != nil {
			return fmt.Errorf("archive task %s: %w", t.ID, err)
		}
	}
	return nil
}

// splitMerge folds a split task's partial work into the integration
// branch and retires the branch. The newly created children are picked
// up by a fresh selection pass, not by continuing against the parent.
func (uc *RunLoop) splitMerge(task *domain.Task, branch string) (passOutcome, error) {
	// A split parent is no longer directly workable.
	if task.Leaf {
		tasks, err := uc.store.Load()
		if err != nil {
			return 0, fmt.Errorf("load tasks: %w", err)
		}
		if t := domain.ByID(task.ID, tasks); t != nil && t.Leaf {
			t.Leaf = false
			if err := uc.store.Save(tasks); err != nil {
				return 0, fmt.Errorf("save tasks: %w", err)
			}
		}
	}

	if err := uc.git.Checkout(uc.cfg.Git.IntegrationBranch); err != nil {
		return 0, fmt.Errorf("checkout %s: %w", uc.cfg.Git.IntegrationBranch, err)
	}

	msg := fmt.Sprintf("[%s] split into subtasks", task.ID)
	if _, err := uc.git.SquashMerge(branch, msg); err != nil {
		if errors.Is(err, domain.ErrMergeConflict) {
			uc.logger.Warn("split merge conflict, blocking task",
				"task", task.ID, "branch", branch)
			if serr := uc.setStatus(task.ID, domain.StatusBlocked, "merge conflict on "+branch); serr != nil {
				return 0, serr
			}
			return outcomeBlocked, nil
		}
		return 0, fmt.Errorf("merge %s: %w", branch, err)
	}

	if err := uc.git.DeleteBranch(branch, true); err != nil {
		uc.logger.Warn("delete split branch", "branch", branch, "error", err)
	}
	uc.logger.Info("task split, children take over", "task", task.ID)
	return outcomeSplit, nil
}

// handleStuck blocks a task that hit the iteration cap. The branch is
// left open, neither merged nor deleted, for operator inspection; the
// outer loop proceeds to other tasks.
func (uc *RunLoop) handleStuck(taskID, branch string) (passOutcome, error) {
	uc.logger.Warn("iteration limit reached, blocking task",
		"task", taskID, "branch", branch)
	if err := uc.setStatus(taskID, domain.StatusBlocked, "iteration limit reached"); err != nil {
		return 0, err
	}
	if err := uc.git.Checkout(uc.cfg.Git.IntegrationBranch); err != nil {
		return 0, fmt.Errorf("checkout %s: %w", uc.cfg.Git.IntegrationBranch, err)
	}
	return outcomeBlocked, nil
}

// abandonBranch discards a branch whose task no longer exists.
func (uc *RunLoop) abandonBranch(branch string) error {
	if err := uc.git.Checkout(uc.cfg.Git.IntegrationBranch); err != nil {
		return fmt.Errorf("checkout %s: %w", uc.cfg.Git.IntegrationBranch, err)
	}
	if err := uc.git.DeleteBranch(branch, true); err != nil {
		uc.logger.Warn("delete abandoned branch", "branch", branch, "error", err)
	}
	return nil
}

// setStatus rewrites one task's status in the store.
func (uc *RunLoop) setStatus(id string, status domain.Status, reason string) error {
	tasks, err := uc.store.Load()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	t := domain.ByID(id, tasks)
	if t == nil {
		return fmt.Errorf("set status of %s: %w", id, domain.ErrTaskNotFound)
	}
	t.Status = status
	t.BlockedReason = reason
	if err := uc.store.Save(tasks); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// countChildren returns the number of direct children currently in the
// active store, zero when the store cannot be read.
func (uc *RunLoop) countChildren(id string) int {
	tasks, err := uc.store.Load()
	if err != nil {
		uc.logger.Warn("count children", "task", id, "error", err)
		return 0
	}
	return len(domain.ChildrenOf(id, tasks))
}

const workPrompt = `You are working on task %s: %s

Work on this task on the current git branch and commit as you go.
The task list lives in .musher/tasks.jsonl, one JSON object per line.
When the task is done, set its "status" field to "complete".
If it is too large for one sitting, add child tasks ("id": "%s.1",
"%s.2", ...) as new lines with "status": "pending", set this task's
"status" to "split" and its "leaf" to false, then stop.
If you cannot make progress, set "status" to "blocked" and explain in
"blocked_reason".`

const verifyPrompt = `Every subtask of task %s is finished: %s

Review the merged result on the current branch against the original
goal. The task list lives in .musher/tasks.jsonl.
If the goal is met, set this task's "status" field to "complete".
If something is still missing, add further child tasks as pending
lines and leave this task's "status" as "split".`

// basePrompt renders the mode-specific instruction text for a task.
// Role content, when a trigger fires, is appended by ComposePrompt.
func (uc *RunLoop) basePrompt(task *domain.Task, mode domain.Mode) string {
	if mode == domain.ModeVerify {
		return fmt.Sprintf(verifyPrompt, task.ID, task.Title)
	}
	return fmt.Sprintf(workPrompt, task.ID, task.Title, task.ID, task.ID)
}
