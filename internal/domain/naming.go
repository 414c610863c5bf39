package domain

import (
	"path/filepath"
	"strings"
)

// DirName is the state directory created at the repository root.
const DirName = ".musher"

// maxSlugLen bounds the slug portion of a branch name. The task ID
// prefix keeps names collision-free even when slugs are truncated.
const maxSlugLen = 30

// BranchName returns the branch name for a task.
// Format: task/<id>-<slug>.
func BranchName(taskID, title string) string {
	slug := Slugify(title)
	if slug == "" {
		return "task/" + taskID
	}
	return "task/" + taskID + "-" + slug
}

// Slugify converts a title to a branch-safe slug: lower-cased, spaces to
// hyphens, every other non-alphanumeric rune stripped, truncated to a
// bounded length.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

// MusherDir returns the state directory path for a repository root.
func MusherDir(repoRoot string) string {
	return filepath.Join(repoRoot, DirName)
}

// TasksPath returns the path to the active task store.
func TasksPath(musherDir string) string {
	return filepath.Join(musherDir, "tasks.jsonl")
}

// ArchivePath returns the path to the completed-task archive.
func ArchivePath(musherDir string) string {
	return filepath.Join(musherDir, "tasks-done.jsonl")
}

// ConfigPath returns the path to the configuration file.
func ConfigPath(musherDir string) string {
	return filepath.Join(musherDir, "config.toml")
}

// TriggersPath returns the path to the trigger configuration file.
func TriggersPath(musherDir string) string {
	return filepath.Join(musherDir, "triggers.yaml")
}

// RolePath returns the path to a role content file.
func RolePath(musherDir, name string) string {
	return filepath.Join(musherDir, "roles", name+".md")
}

// StopPath returns the path to the graceful-stop signal file.
func StopPath(musherDir string) string {
	return filepath.Join(musherDir, "stop")
}

// LogPath returns the path to the global log file.
func LogPath(musherDir string) string {
	return filepath.Join(musherDir, "logs", "musher.log")
}
