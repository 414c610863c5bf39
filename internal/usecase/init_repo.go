package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/musher-dev/musher/internal/domain"
)

// InitRepoInput contains the input parameters for InitRepo.
type InitRepoInput struct {
	MusherDir string // Path to the .musher directory
	RepoRoot  string // Path to the repository root
}

// InitRepoOutput contains the output from InitRepo.
type InitRepoOutput struct {
	MusherDir          string // Path to the created state directory
	AlreadyInitialized bool   // True if the state directory already existed
	GitignoreNeedsAdd  bool   // True if .musher/ should be added to .gitignore
}

// InitRepo initializes a repository for musher.
type InitRepo struct {
	storeInit domain.StoreInitializer
}

// NewInitRepo creates a new InitRepo use case.
func NewInitRepo(storeInit domain.StoreInitializer) *InitRepo {
	return &InitRepo{storeInit: storeInit}
}

// Execute creates the .musher/ skeleton: config, triggers, roles dir,
// logs dir and empty task stores. Running it against an initialized
// repository is harmless; existing files are never overwritten.
func (uc *InitRepo) Execute(_ context.Context, in InitRepoInput) (*InitRepoOutput, error) {
	alreadyInitialized := false
	if _, err := os.Stat(in.MusherDir); err == nil {
		alreadyInitialized = true
	}

	for _, dir := range []string{
		in.MusherDir,
		filepath.Join(in.MusherDir, "roles"),
		filepath.Join(in.MusherDir, "logs"),
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := writeIfAbsent(domain.ConfigPath(in.MusherDir), defaultConfigTOML); err != nil {
		return nil, err
	}
	if err := writeIfAbsent(domain.TriggersPath(in.MusherDir), defaultTriggersYAML); err != nil {
		return nil, err
	}
	if err := writeIfAbsent(domain.RolePath(in.MusherDir, "reviewer"), defaultReviewerRole); err != nil {
		return nil, err
	}

	if err := uc.storeInit.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize task store: %w", err)
	}

	gitignoreNeedsAdd := false
	if !alreadyInitialized && in.RepoRoot != "" {
		gitignoreNeedsAdd = !inGitignore(in.RepoRoot)
	}

	return &InitRepoOutput{
		MusherDir:          in.MusherDir,
		AlreadyInitialized: alreadyInitialized,
		GitignoreNeedsAdd:  gitignoreNeedsAdd,
	}, nil
}

// writeIfAbsent creates a file with content unless it already exists.
func writeIfAbsent(path, content string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// inGitignore checks whether .musher is already ignored.
func inGitignore(repoRoot string) bool {
	content, err := os.ReadFile(filepath.Join(repoRoot, ".gitignore"))
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == domain.DirName || line == domain.DirName+"/" {
			return true
		}
	}
	return false
}

const defaultConfigTOML = `# musher configuration. Missing keys fall back to these defaults.

[loop]
max_iterations = 20
poll_interval = "5s"
iteration_delay = "2s"
consecutive_failure_limit = 5

[agent]
command = "claude"
args = ["-p"]
timeout = "1h"

[git]
integration_branch = "main"

[log]
level = "info"
`

const defaultTriggersYAML = `# Ordered trigger list. The first condition that holds selects the role
# appended to the next agent invocation. Role content lives in
# roles/<name>.md.
triggers:
  - condition: task_marked_ready_to_complete
    role: reviewer
#  - condition: branch_commits >= 5 && iterations_since_role("reviewer") >= 3
#    role: reviewer
#  - condition: last_iteration_failed
#    role: debugger
`

const defaultReviewerRole = `Before finishing, review the branch diff against the task title.
Check for leftover debug output, missing tests and incomplete edge
cases. Fix what you find, then confirm completion.
`
