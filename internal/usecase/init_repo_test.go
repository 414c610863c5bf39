package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musher-dev/musher/internal/domain"
	"github.com/musher-dev/musher/internal/infra/taskstore"
)

func TestInitRepo_Execute(t *testing.T) {
	root := t.TempDir()
	musherDir := domain.MusherDir(root)
	uc := NewInitRepo(taskstore.New(musherDir))

	out, err := uc.Execute(context.Background(), InitRepoInput{MusherDir: musherDir, RepoRoot: root})
	require.NoError(t, err)
	assert.False(t, out.AlreadyInitialized)
	assert.True(t, out.GitignoreNeedsAdd)

	for _, path := range []string{
		domain.ConfigPath(musherDir),
		domain.TriggersPath(musherDir),
		domain.TasksPath(musherDir),
		domain.ArchivePath(musherDir),
		domain.RolePath(musherDir, "reviewer"),
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
}

func TestInitRepo_Execute_Idempotent(t *testing.T) {
	root := t.TempDir()
	musherDir := domain.MusherDir(root)
	uc := NewInitRepo(taskstore.New(musherDir))

	_, err := uc.Execute(context.Background(), InitRepoInput{MusherDir: musherDir, RepoRoot: root})
	require.NoError(t, err)

	// Operator edits survive a re-init.
	require.NoError(t, os.WriteFile(domain.ConfigPath(musherDir), []byte("[loop]\nmax_iterations = 3\n"), 0o640))

	out, err := uc.Execute(context.Background(), InitRepoInput{MusherDir: musherDir, RepoRoot: root})
	require.NoError(t, err)
	assert.True(t, out.AlreadyInitialized)

	content, err := os.ReadFile(domain.ConfigPath(musherDir))
	require.NoError(t, err)
	assert.Contains(t, string(content), "max_iterations = 3")
}

func TestInitRepo_Execute_GitignoreAlreadyListed(t *testing.T) {
	root := t.TempDir()
	musherDir := domain.MusherDir(root)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("bin/\n.musher/\n"), 0o640))
	uc := NewInitRepo(taskstore.New(musherDir))

	out, err := uc.Execute(context.Background(), InitRepoInput{MusherDir: musherDir, RepoRoot: root})
	require.NoError(t, err)
	assert.False(t, out.GitignoreNeedsAdd)
}
