package taskstore

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/musher-dev/musher/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := New(t.TempDir())
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return store
}

func TestStore_Initialize(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if _, err := os.Stat(domain.TasksPath(dir)); err != nil {
		t.Errorf("tasks file not created: %v", err)
	}
	if _, err := os.Stat(domain.ArchivePath(dir)); err != nil {
		t.Errorf("archive file not created: %v", err)
	}

	// Idempotent, and must not truncate an existing store.
	if err := store.Save([]*domain.Task{{ID: "A", Title: "t", Status: domain.StatusPending, Leaf: true}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize() second call error = %v", err)
	}
	tasks, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Errorf("Initialize truncated the store: %d tasks", len(tasks))
	}
}

func TestStore_NotInitialized(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Load(); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Load() error = %v, want ErrNotInitialized", err)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	tasks := []*domain.Task{
		{ID: "A", Title: "container", Status: domain.StatusSplit, Leaf: false},
		{ID: "A.1", Title: "child", Status: domain.StatusComplete, Leaf: true, Commit: "abc1234"},
		{ID: "A.2", Title: "blocked child", Status: domain.StatusBlocked, Leaf: true, BlockedReason: "iteration limit reached"},
		{ID: "B", Title: "pending", Status: domain.StatusPending, Leaf: true},
	}
	if err := store.Save(tasks); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != len(tasks) {
		t.Fatalf("Load() returned %d tasks, want %d", len(got), len(tasks))
	}
	for i, want := range tasks {
		if *got[i] != *want {
			t.Errorf("task %d = %+v, want %+v", i, *got[i], *want)
		}
	}
}

func TestStore_PreservesFileOrder(t *testing.T) {
	store := newTestStore(t)

	// Deliberately not in ID order: file order is operator priority.
	tasks := []*domain.Task{
		{ID: "B", Title: "first", Status: domain.StatusPending, Leaf: true},
		{ID: "A", Title: "second", Status: domain.StatusPending, Leaf: true},
	}
	if err := store.Save(tasks); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "B" || got[1].ID != "A" {
		t.Errorf("Load() order = %s,%s, want B,A", got[0].ID, got[1].ID)
	}
}

func TestStore_LeafDefaultsTrue(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.Initialize(); err != nil {
		t.Fatal(err)
	}

	// Operator-authored seed line without a leaf field.
	line := `{"id":"A","title":"seed","status":"pending"}` + "\n"
	if err := os.WriteFile(domain.TasksPath(dir), []byte(line), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].Leaf {
		t.Error("leaf should default to true when the field is absent")
	}
}

func TestStore_LoadRejectsCorruptStore(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"id":"A","title":"x"` + "\n"},
		{"missing id", `{"title":"x","status":"pending"}` + "\n"},
		{"malformed id", `{"id":"A..1","title":"x","status":"pending"}` + "\n"},
		{"missing title", `{"id":"A","status":"pending"}` + "\n"},
		{"invalid status", `{"id":"A","title":"x","status":"doing"}` + "\n"},
		{
			"duplicate id",
			`{"id":"A","title":"x","status":"pending"}` + "\n" +
				`{"id":"A","title":"y","status":"pending"}` + "\n",
		},
		{"orphaned child", `{"id":"A.1","title":"x","status":"pending"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store := New(dir)
			if err := store.Initialize(); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(domain.TasksPath(dir), []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			// The whole load is rejected, not just the bad line.
			if _, err := store.Load(); !errors.Is(err, domain.ErrStoreCorrupt) {
				t.Errorf("Load() error = %v, want ErrStoreCorrupt", err)
			}
		})
	}
}

// An orphaned child is a common hand-seeding mistake; the error says
// how to repair it.
func TestStore_OrphanErrorNamesMissingParent(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.Initialize(); err != nil {
		t.Fatal(err)
	}
	line := `{"id":"A.1","title":"x","status":"pending"}` + "\n"
	if err := os.WriteFile(domain.TasksPath(dir), []byte(line), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load()
	if !errors.Is(err, domain.ErrStoreCorrupt) {
		t.Fatalf("Load() error = %v, want ErrStoreCorrupt", err)
	}
	if !strings.Contains(err.Error(), `add a line for "A"`) {
		t.Errorf("Load() error = %q, want repair guidance naming the parent", err)
	}
}

func TestStore_LoadSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.Initialize(); err != nil {
		t.Fatal(err)
	}
	content := `{"id":"A","title":"x","status":"pending"}` + "\n\n  \n"
	if err := os.WriteFile(domain.TasksPath(dir), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Load() returned %d tasks, want 1", len(got))
	}
}

func TestStore_Archive(t *testing.T) {
	store := newTestStore(t)

	task := &domain.Task{ID: "A", Title: "done", Status: domain.StatusComplete, Leaf: true}
	if err := store.Save([]*domain.Task{task}); err != nil {
		t.Fatal(err)
	}

	completedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	if err := store.Archive(task, "abc1234", completedAt); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	// Gone from the active store.
	active, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("active store still has %d tasks", len(active))
	}

	// Exactly once in the archive, with a non-empty commit ref.
	archived, err := store.LoadArchive()
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 {
		t.Fatalf("archive has %d records, want 1", len(archived))
	}
	rec := archived[0]
	if rec.ID != "A" || rec.Commit != "abc1234" {
		t.Errorf("archived record = %+v", rec)
	}
	if rec.Completed == "" || !strings.HasPrefix(rec.Completed, "2026-03-14") {
		t.Errorf("completed timestamp = %q", rec.Completed)
	}
}

func TestStore_ArchiveKeepsExistingCommit(t *testing.T) {
	store := newTestStore(t)

	// A child completed earlier already carries its own closing commit.
	task := &domain.Task{ID: "A", Title: "done", Status: domain.StatusComplete, Leaf: true, Commit: "child99"}
	if err := store.Save([]*domain.Task{task}); err != nil {
		t.Fatal(err)
	}
	if err := store.Archive(task, "root123", time.Now()); err != nil {
		t.Fatal(err)
	}

	archived, err := store.LoadArchive()
	if err != nil {
		t.Fatal(err)
	}
	if archived[0].Commit != "child99" {
		t.Errorf("archive commit = %q, want the task's own commit", archived[0].Commit)
	}
}

func TestStore_ArchivedIDs(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"A.1", "A.2"} {
		task := &domain.Task{ID: id, Title: "t", Status: domain.StatusComplete, Leaf: true}
		if err := store.appendArchive(domain.NewArchivedTask(task, "abc", time.Now())); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := store.ArchivedIDs()
	if err != nil {
		t.Fatal(err)
	}
	if !ids["A.1"] || !ids["A.2"] || len(ids) != 2 {
		t.Errorf("ArchivedIDs = %v", ids)
	}
}

func TestStore_LoadArchiveLenient(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.Initialize(); err != nil {
		t.Fatal(err)
	}

	content := `{"id":"A","title":"ok","status":"complete","commit":"abc","completed":"2026-01-01"}` + "\n" +
		"not json\n" +
		`{"id":"B","title":"ok2","status":"complete","commit":"def","completed":"2026-01-02"}` + "\n"
	if err := os.WriteFile(domain.ArchivePath(dir), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	archived, err := store.LoadArchive()
	if err != nil {
		t.Fatalf("LoadArchive() error = %v", err)
	}
	if len(archived) != 2 {
		t.Errorf("LoadArchive() = %d records, want 2 (bad line skipped)", len(archived))
	}
}
