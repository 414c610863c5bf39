// Package gitrepo provides git operations for the branch-per-task
// workflow. Mutations (checkout, squash merge, commit, branch delete)
// shell out to the git binary; read-only queries go through go-git to
// avoid spawning a process on every loop iteration.
package gitrepo

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/musher-dev/musher/internal/domain"
)

// Client implements domain.Git against a single local repository.
type Client struct {
	repo     *gogit.Repository
	repoRoot string
}

// NewClient creates a git client rooted at the repository containing
// dir.
func NewClient(dir string) (*Client, error) {
	repoRoot, err := findRepoRoot(dir)
	if err != nil {
		return nil, err
	}
	repo, err := gogit.PlainOpen(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}
	return &Client{repo: repo, repoRoot: repoRoot}, nil
}

// RepoRoot returns the repository root directory.
func (c *Client) RepoRoot() string {
	return c.repoRoot
}

// CurrentBranch returns the name of the checked-out branch.
func (c *Client) CurrentBranch() (string, error) {
	head, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash().String()[:7])
	}
	return head.Name().Short(), nil
}

// BranchExists checks whether a local branch exists.
func (c *Client) BranchExists(branch string) (bool, error) {
	_, err := c.repo.Reference(plumbing.NewBranchReferenceName(branch), false)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check branch %s: %w", branch, err)
	}
	return true, nil
}

// CreateBranch creates and checks out a new branch off the current
// HEAD. Returns domain.ErrBranchExists when the name is taken.
func (c *Client) CreateBranch(branch string) error {
	exists, err := c.BranchExists(branch)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("branch %s: %w", branch, domain.ErrBranchExists)
	}
	if out, err := c.git("checkout", "-b", branch); err != nil {
		return fmt.Errorf("create branch %s: %w: %s", branch, err, out)
	}
	return nil
}

// Checkout switches to an existing branch.
func (c *Client) Checkout(branch string) error {
	if out, err := c.git("checkout", branch); err != nil {
		return fmt.Errorf("checkout %s: %w: %s", branch, err, out)
	}
	return nil
}

// SquashMerge squash-merges branch into the checked-out branch and
// commits with message. Returns the short hash of the resulting commit.
// On conflict the merge attempt is unwound (the working tree is reset)
// and domain.ErrMergeConflict is returned; the task branch is left
// intact for the operator.
func (c *Client) SquashMerge(branch, message string) (string, error) {
	if out, err := c.git("merge", "--squash", branch); err != nil {
		if strings.Contains(out, "CONFLICT") || strings.Contains(out, "Automatic merge failed") {
			// Unwind so the integration branch stays clean for other
			// tasks. Conflicts are never auto-resolved.
			_, _ = c.git("reset", "--merge")
			return "", fmt.Errorf("squash %s: %w", branch, domain.ErrMergeConflict)
		}
		return "", fmt.Errorf("squash %s: %w: %s", branch, err, out)
	}

	staged, err := c.HasStagedChanges()
	if err != nil {
		return "", err
	}
	if staged {
		if out, err := c.git("commit", "-m", message); err != nil {
			return "", fmt.Errorf("commit squash of %s: %w: %s", branch, err, out)
		}
	}
	// An empty squash (branch carried no net change) closes on the
	// current HEAD.
	return c.shortHead()
}

// HasStagedChanges reports whether the index differs from HEAD.
func (c *Client) HasStagedChanges() (bool, error) {
	_, err := c.git("diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, fmt.Errorf("check staged changes: %w", err)
}

// DeleteBranch deletes a branch. force uses -D, for branches whose
// commits are not fully merged.
func (c *Client) DeleteBranch(branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if out, err := c.git("branch", flag, branch); err != nil {
		return fmt.Errorf("delete branch %s: %w: %s", branch, err, out)
	}
	return nil
}

// CommitsAhead counts commits reachable from branch but not from base.
// This feeds the branch_commits trigger field, so it runs on every
// iteration; go-git keeps it in-process.
func (c *Client) CommitsAhead(branch, base string) (int, error) {
	branchCommit, err := c.tipCommit(branch)
	if err != nil {
		return 0, err
	}
	baseCommit, err := c.tipCommit(base)
	if err != nil {
		return 0, err
	}

	mergeBases, err := branchCommit.MergeBase(baseCommit)
	if err != nil {
		return 0, fmt.Errorf("merge base of %s and %s: %w", branch, base, err)
	}
	stop := make(map[plumbing.Hash]bool, len(mergeBases))
	for _, mb := range mergeBases {
		stop[mb.Hash] = true
	}

	count := 0
	iter := object.NewCommitPreorderIter(branchCommit, nil, nil)
	err = iter.ForEach(func(commit *object.Commit) error {
		if stop[commit.Hash] {
			return storer.ErrStop
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count commits on %s: %w", branch, err)
	}
	return count, nil
}

func (c *Client) tipCommit(branch string) (*object.Commit, error) {
	ref, err := c.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", branch, err)
	}
	commit, err := c.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", ref.Hash(), err)
	}
	return commit, nil
}

func (c *Client) shortHead() (string, error) {
	head, err := c.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String()[:7], nil
}

func (c *Client) git(args ...string) (string, error) {
	//nolint:gosec // arguments come from trusted loop code, not user input
	cmd := exec.Command("git", args...)
	cmd.Dir = c.repoRoot
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// findRepoRoot locates the repository toplevel from the given directory.
func findRepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", domain.ErrNotGitRepo
	}
	return strings.TrimSpace(string(out)), nil
}

// Ensure Client implements domain.Git.
var _ domain.Git = (*Client)(nil)
