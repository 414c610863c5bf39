// Package taskstore provides a JSONL file-based implementation of
// domain.TaskStore: one JSON object per line, active tasks in one file
// and an append-only archive in another.
package taskstore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/musher-dev/musher/internal/domain"
)

// Store implements domain.TaskStore using two JSONL files.
//
// The active file is rewritten atomically (write-temp-then-rename), so
// an operator inspecting it mid-save never sees a truncated store. The
// archive file is append-only. A shared lock file serializes access
// with the external agent, which writes task records directly.
type Store struct {
	path        string // active tasks
	archivePath string // completed tasks
	lockPath    string
}

// record is the wire form of a task. Leaf is a pointer so that records
// written without the field (operator-authored seed files) default to
// workable leaves instead of silent containers.
type record struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	Leaf          *bool  `json:"leaf,omitempty"`
	BlockedReason string `json:"blocked_reason,omitempty"`
	Commit        string `json:"commit,omitempty"`
	Completed     string `json:"completed,omitempty"`
}

// New creates a Store over the state directory. Files do not need to
// exist; they are created by Initialize or on first write.
func New(musherDir string) *Store {
	return &Store{
		path:        domain.TasksPath(musherDir),
		archivePath: domain.ArchivePath(musherDir),
		lockPath:    domain.TasksPath(musherDir) + ".lock",
	}
}

// IsInitialized checks if the active store file exists.
func (s *Store) IsInitialized() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Initialize creates empty store files if they don't exist.
func (s *Store) Initialize() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	for _, p := range []string{s.path, s.archivePath} {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // task files are operator-readable
		if err != nil {
			return fmt.Errorf("create store file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close store file: %w", err)
		}
	}
	return nil
}

// Load reads the active task collection, preserving file order. The
// whole store is rejected with ErrStoreCorrupt on the first malformed
// line, duplicate ID, or orphaned hierarchy entry: silently dropping
// records would lose work.
func (s *Store) Load() ([]*domain.Task, error) {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(lock)

	return s.loadLocked()
}

func (s *Store) loadLocked() ([]*domain.Task, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotInitialized
		}
		return nil, fmt.Errorf("read task store: %w", err)
	}

	var tasks []*domain.Task
	seen := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrStoreCorrupt, lineNo, err)
		}
		task, err := rec.toTask()
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrStoreCorrupt, lineNo, err)
		}
		if seen[task.ID] {
			return nil, fmt.Errorf("%w: line %d: duplicate id %q", domain.ErrStoreCorrupt, lineNo, task.ID)
		}
		seen[task.ID] = true
		tasks = append(tasks, task)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan task store: %w", err)
	}

	// Hierarchy check: every non-root task needs its parent in the
	// active collection. Parents are only archived after their whole
	// subtree is done, so a missing parent means a mangled store.
	for _, t := range tasks {
		if p := t.ParentID(); p != "" && !seen[p] {
			return nil, fmt.Errorf("%w: task %q has no parent %q (add a line for %q, or give the task a top-level id)", domain.ErrStoreCorrupt, t.ID, p, p)
		}
	}

	return tasks, nil
}

func (r *record) toTask() (*domain.Task, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	if !domain.ValidTaskID(r.ID) {
		return nil, fmt.Errorf("malformed id %q", r.ID)
	}
	if r.Title == "" {
		return nil, fmt.Errorf("task %q: missing title", r.ID)
	}
	status := domain.Status(r.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("task %q: invalid status %q", r.ID, r.Status)
	}
	leaf := true
	if r.Leaf != nil {
		leaf = *r.Leaf
	}
	return &domain.Task{
		ID:            r.ID,
		Title:         r.Title,
		Status:        status,
		Leaf:          leaf,
		BlockedReason: r.BlockedReason,
		Commit:        r.Commit,
	}, nil
}

func taskRecord(t *domain.Task) record {
	leaf := t.Leaf
	return record{
		ID:            t.ID,
		Title:         t.Title,
		Status:        string(t.Status),
		Leaf:          &leaf,
		BlockedReason: t.BlockedReason,
		Commit:        t.Commit,
	}
}

// Save atomically rewrites the active collection, preserving order.
func (s *Store) Save(tasks []*domain.Task) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	return s.saveLocked(tasks)
}

func (s *Store) saveLocked(tasks []*domain.Task) error {
	var buf bytes.Buffer
	for _, t := range tasks {
		rec := taskRecord(t)
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal task %q: %w", t.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	// Write to temp file first, then rename for atomicity.
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil { //nolint:gosec // task files are operator-readable
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Archive appends the completed record to the archive, then removes the
// task from the active collection. Archive-first: a crash in between
// leaves a duplicate, never a lost task.
func (s *Store) Archive(task *domain.Task, commitRef string, completedAt time.Time) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	if err := s.appendArchive(domain.NewArchivedTask(task, commitRef, completedAt)); err != nil {
		return err
	}

	tasks, err := s.loadLocked()
	if err != nil {
		return err
	}
	remaining := tasks[:0]
	for _, t := range tasks {
		if t.ID != task.ID {
			remaining = append(remaining, t)
		}
	}
	return s.saveLocked(remaining)
}

func (s *Store) appendArchive(rec domain.ArchivedTask) error {
	leaf := rec.Leaf
	line, err := json.Marshal(record{
		ID:            rec.ID,
		Title:         rec.Title,
		Status:        string(rec.Status),
		Leaf:          &leaf,
		BlockedReason: rec.BlockedReason,
		Commit:        rec.Commit,
		Completed:     rec.Completed,
	})
	if err != nil {
		return fmt.Errorf("marshal archive record: %w", err)
	}

	f, err := os.OpenFile(s.archivePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec // task files are operator-readable
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append archive record: %w", err)
	}
	return nil
}

// ArchivedIDs returns the set of identifiers present in the archive.
func (s *Store) ArchivedIDs() (map[string]bool, error) {
	archived, err := s.LoadArchive()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(archived))
	for _, rec := range archived {
		ids[rec.ID] = true
	}
	return ids, nil
}

// LoadArchive reads all archive records in append order. The archive is
// read leniently: it is historical data, and a bad line there must not
// stop the loop from working active tasks.
func (s *Store) LoadArchive() ([]domain.ArchivedTask, error) {
	content, err := os.ReadFile(s.archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive: %w", err)
	}

	var out []domain.ArchivedTask
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		task, err := rec.toTask()
		if err != nil {
			continue
		}
		out = append(out, domain.ArchivedTask{Task: *task, Completed: rec.Completed})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan archive: %w", err)
	}
	return out, nil
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

// Ensure Store implements the domain ports.
var (
	_ domain.TaskStore        = (*Store)(nil)
	_ domain.StoreInitializer = (*Store)(nil)
)
