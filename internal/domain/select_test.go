package domain

import "testing"

func TestNextWorkable_SkipsNonLeaf(t *testing.T) {
	tasks := []*Task{
		{ID: "A", Title: "container", Status: StatusPending, Leaf: false},
		{ID: "A.1", Title: "real work", Status: StatusPending, Leaf: true},
	}

	got, mode := NextWorkable(tasks, nil)
	if got == nil || got.ID != "A.1" {
		t.Fatalf("NextWorkable = %v, want A.1", got)
	}
	if mode != ModeWork {
		t.Errorf("mode = %q, want work", mode)
	}
}

func TestNextWorkable_FileOrder(t *testing.T) {
	tasks := []*Task{
		{ID: "B", Status: StatusPending, Leaf: true},
		{ID: "A", Status: StatusPending, Leaf: true},
	}

	// Store order wins, not ID order.
	got, _ := NextWorkable(tasks, nil)
	if got.ID != "B" {
		t.Errorf("NextWorkable = %s, want B (file order)", got.ID)
	}
}

func TestNextWorkable_ResumesActiveFirst(t *testing.T) {
	tasks := []*Task{
		{ID: "A", Status: StatusPending, Leaf: true},
		{ID: "B", Status: StatusActive, Leaf: true},
	}

	got, mode := NextWorkable(tasks, nil)
	if got.ID != "B" || mode != ModeWork {
		t.Errorf("NextWorkable = %s/%s, want B/work (crash resume)", got.ID, mode)
	}
}

func TestNextWorkable_BlockedExcluded(t *testing.T) {
	tasks := []*Task{
		{ID: "A", Status: StatusBlocked, Leaf: true, BlockedReason: "iteration limit reached"},
	}

	got, _ := NextWorkable(tasks, nil)
	if got != nil {
		t.Errorf("NextWorkable = %v, want nil", got)
	}
}

func TestNextWorkable_Idle(t *testing.T) {
	got, mode := NextWorkable(nil, nil)
	if got != nil || mode != "" {
		t.Errorf("NextWorkable on empty store = %v/%q, want nil", got, mode)
	}
}

func TestNextWorkable_VerifyWhenChildrenComplete(t *testing.T) {
	tasks := []*Task{
		{ID: "A", Status: StatusSplit, Leaf: false},
		{ID: "A.1", Status: StatusComplete, Leaf: true},
		{ID: "A.2", Status: StatusComplete, Leaf: true},
	}

	got, mode := NextWorkable(tasks, nil)
	if got == nil || got.ID != "A" {
		t.Fatalf("NextWorkable = %v, want A", got)
	}
	if mode != ModeVerify {
		t.Errorf("mode = %q, want verify", mode)
	}
}

func TestNextWorkable_NoVerifyWhileChildPending(t *testing.T) {
	tasks := []*Task{
		{ID: "A", Status: StatusSplit, Leaf: false},
		{ID: "A.1", Status: StatusComplete, Leaf: true},
		{ID: "A.2", Status: StatusBlocked, Leaf: true},
	}

	got, _ := NextWorkable(tasks, nil)
	if got != nil {
		t.Errorf("NextWorkable = %v, want nil while a child is blocked", got)
	}
}

func TestNextWorkable_VerifyWithArchivedChildren(t *testing.T) {
	// All children already archived: only the split parent remains.
	tasks := []*Task{
		{ID: "A", Status: StatusSplit, Leaf: false},
	}
	archived := map[string]bool{"A.1": true, "A.2": true}

	got, mode := NextWorkable(tasks, archived)
	if got == nil || got.ID != "A" || mode != ModeVerify {
		t.Fatalf("NextWorkable = %v/%v, want A/verify", got, mode)
	}
}

func TestNextWorkable_SplitWithoutChildrenNotVerified(t *testing.T) {
	// A split parent with no children at all is malformed state; it must
	// not enter the verify pass.
	tasks := []*Task{
		{ID: "A", Status: StatusSplit, Leaf: false},
	}

	got, _ := NextWorkable(tasks, nil)
	if got != nil {
		t.Errorf("NextWorkable = %v, want nil for childless split", got)
	}
}

func TestChildrenOf(t *testing.T) {
	tasks := []*Task{
		{ID: "A.10"},
		{ID: "A.2"},
		{ID: "A.1.1"},
		{ID: "A.1"},
		{ID: "B"},
	}

	got := ChildrenOf("A", tasks)
	want := []string{"A.1", "A.2", "A.10"}
	if len(got) != len(want) {
		t.Fatalf("ChildrenOf returned %d tasks, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("ChildrenOf[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSubtreeOf(t *testing.T) {
	tasks := []*Task{
		{ID: "A"},
		{ID: "A.1"},
		{ID: "A.1.2"},
		{ID: "AB"},
		{ID: "B"},
	}

	got := SubtreeOf("A", tasks)
	want := []string{"A", "A.1", "A.1.2"}
	if len(got) != len(want) {
		t.Fatalf("SubtreeOf returned %d tasks, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("SubtreeOf[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}
