package gitrepo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/musher-dev/musher/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupGitRepo creates a temporary git repository with one commit on
// main.
func setupGitRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runGit(t, dir, "init", "-b", "main")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")

	writeFile(t, dir, "README.md", "# Test\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "Initial commit")

	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestNewClient_NotGitRepo(t *testing.T) {
	client, err := NewClient(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNotGitRepo)
	assert.Nil(t, client)
}

func TestClient_CurrentBranch(t *testing.T) {
	dir := setupGitRepo(t)
	client, err := NewClient(dir)
	require.NoError(t, err)

	branch, err := client.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestClient_CreateBranch(t *testing.T) {
	dir := setupGitRepo(t)
	client, err := NewClient(dir)
	require.NoError(t, err)

	require.NoError(t, client.CreateBranch("task/A-fix-bug"))

	branch, err := client.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "task/A-fix-bug", branch)

	exists, err := client.BranchExists("task/A-fix-bug")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClient_CreateBranch_Exists(t *testing.T) {
	dir := setupGitRepo(t)
	client, err := NewClient(dir)
	require.NoError(t, err)

	require.NoError(t, client.CreateBranch("task/A-fix-bug"))
	require.NoError(t, client.Checkout("main"))

	// A colliding name is never silently reused.
	err = client.CreateBranch("task/A-fix-bug")
	assert.ErrorIs(t, err, domain.ErrBranchExists)
}

func TestClient_SquashMerge(t *testing.T) {
	dir := setupGitRepo(t)
	client, err := NewClient(dir)
	require.NoError(t, err)

	// Two commits on a task branch.
	require.NoError(t, client.CreateBranch("task/A-add-feature"))
	writeFile(t, dir, "a.txt", "one\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "step one")
	writeFile(t, dir, "b.txt", "two\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "step two")

	require.NoError(t, client.Checkout("main"))
	hash, err := client.SquashMerge("task/A-add-feature", "[A] add feature")
	require.NoError(t, err)
	assert.Len(t, hash, 7)

	// Both files landed in one commit on main.
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "b.txt"))

	count, err := client.CommitsAhead("main", "main")
	require.NoError(t, err)
	assert.Zero(t, count)

	// The squashed branch is force-deletable afterwards.
	require.NoError(t, client.DeleteBranch("task/A-add-feature", true))
	exists, err := client.BranchExists("task/A-add-feature")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_SquashMerge_Conflict(t *testing.T) {
	dir := setupGitRepo(t)
	client, err := NewClient(dir)
	require.NoError(t, err)

	require.NoError(t, client.CreateBranch("task/A-edit"))
	writeFile(t, dir, "README.md", "# branch version\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "branch edit")

	require.NoError(t, client.Checkout("main"))
	writeFile(t, dir, "README.md", "# main version\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "main edit")

	_, err = client.SquashMerge("task/A-edit", "[A] edit")
	assert.ErrorIs(t, err, domain.ErrMergeConflict)

	// The attempt is unwound: integration branch stays clean, the task
	// branch survives for inspection.
	staged, err := client.HasStagedChanges()
	require.NoError(t, err)
	assert.False(t, staged)
	exists, err := client.BranchExists("task/A-edit")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClient_SquashMerge_NoChanges(t *testing.T) {
	dir := setupGitRepo(t)
	client, err := NewClient(dir)
	require.NoError(t, err)

	// Branch with no commits at all.
	require.NoError(t, client.CreateBranch("task/A-noop"))
	require.NoError(t, client.Checkout("main"))

	hash, err := client.SquashMerge("task/A-noop", "[A] noop")
	require.NoError(t, err)
	assert.Len(t, hash, 7)
}

func TestClient_CommitsAhead(t *testing.T) {
	dir := setupGitRepo(t)
	client, err := NewClient(dir)
	require.NoError(t, err)

	require.NoError(t, client.CreateBranch("task/A-work"))

	count, err := client.CommitsAhead("task/A-work", "main")
	require.NoError(t, err)
	assert.Zero(t, count)

	for i, name := range []string{"x.txt", "y.txt", "z.txt"} {
		writeFile(t, dir, name, "data\n")
		runGit(t, dir, "add", ".")
		runGit(t, dir, "commit", "-m", "commit "+string(rune('a'+i)))
	}

	count, err = client.CommitsAhead("task/A-work", "main")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestClient_HasStagedChanges(t *testing.T) {
	dir := setupGitRepo(t)
	client, err := NewClient(dir)
	require.NoError(t, err)

	staged, err := client.HasStagedChanges()
	require.NoError(t, err)
	assert.False(t, staged)

	writeFile(t, dir, "new.txt", "data\n")
	runGit(t, dir, "add", ".")

	staged, err = client.HasStagedChanges()
	require.NoError(t, err)
	assert.True(t, staged)
}
