package domain

import "testing"

func TestValidTaskID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"A", true},
		{"A.1", true},
		{"A.1.2", true},
		{"1", true},
		{"1.2.3.4", true},
		{"", false},
		{".", false},
		{"A.", false},
		{".A", false},
		{"A..1", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ValidTaskID(tt.id); got != tt.want {
				t.Errorf("ValidTaskID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestParentID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"A", ""},
		{"A.1", "A"},
		{"A.1.2", "A.1"},
		{"10.3", "10"},
	}

	for _, tt := range tests {
		if got := ParentID(tt.id); got != tt.want {
			t.Errorf("ParentID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestDepth(t *testing.T) {
	if got := Depth("A"); got != 1 {
		t.Errorf("Depth(A) = %d, want 1", got)
	}
	if got := Depth("A.1.2"); got != 3 {
		t.Errorf("Depth(A.1.2) = %d, want 3", got)
	}
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int // sign only
	}{
		{"equal", "A.1", "A.1", 0},
		{"numeric not lexical", "A.9", "A.10", -1},
		{"parent before child", "A", "A.1", -1},
		{"sibling order", "A.2", "A.1", 1},
		{"numeric roots", "2", "10", -1},
		{"deep", "A.1.5", "A.1.12", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareIDs(tt.a, tt.b)
			switch {
			case tt.want == 0 && got != 0:
				t.Errorf("CompareIDs(%q, %q) = %d, want 0", tt.a, tt.b, got)
			case tt.want < 0 && got >= 0:
				t.Errorf("CompareIDs(%q, %q) = %d, want < 0", tt.a, tt.b, got)
			case tt.want > 0 && got <= 0:
				t.Errorf("CompareIDs(%q, %q) = %d, want > 0", tt.a, tt.b, got)
			}
		})
	}
}

func TestNextChildID(t *testing.T) {
	tasks := []*Task{
		{ID: "A", Status: StatusSplit},
		{ID: "A.1", Status: StatusComplete, Leaf: true},
		{ID: "A.3", Status: StatusPending, Leaf: true},
		{ID: "B", Status: StatusPending, Leaf: true},
	}

	// Max active child index is 3.
	if got := NextChildID("A", tasks, nil); got != "A.4" {
		t.Errorf("NextChildID(A) = %q, want A.4", got)
	}

	// Archived children count too: IDs are never reused.
	archived := map[string]bool{"A.7": true}
	if got := NextChildID("A", tasks, archived); got != "A.8" {
		t.Errorf("NextChildID(A) with archive = %q, want A.8", got)
	}

	// No children yet.
	if got := NextChildID("B", tasks, nil); got != "B.1" {
		t.Errorf("NextChildID(B) = %q, want B.1", got)
	}

	// Root level.
	if got := NextChildID("", []*Task{{ID: "1"}, {ID: "4"}}, nil); got != "5" {
		t.Errorf("NextChildID root = %q, want 5", got)
	}
}

func TestIsChildOf(t *testing.T) {
	if !IsChildOf("A.1", "A") {
		t.Error("A.1 should be a child of A")
	}
	if IsChildOf("A.1.1", "A") {
		t.Error("A.1.1 is a grandchild, not a child of A")
	}
	if IsChildOf("AB.1", "A") {
		t.Error("AB.1 is not a child of A")
	}
}

func TestIsDescendantOf(t *testing.T) {
	if !IsDescendantOf("A.1.1", "A") {
		t.Error("A.1.1 should be a descendant of A")
	}
	if IsDescendantOf("AB", "A") {
		t.Error("AB is not a descendant of A")
	}
	if IsDescendantOf("A", "A") {
		t.Error("a task is not its own descendant")
	}
}
