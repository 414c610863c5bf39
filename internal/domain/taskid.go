package domain

import (
	"strconv"
	"strings"
)

// Task IDs are dotted paths: "A", "A.1", "A.1.2". Segment count is the
// depth. Ordering within a sibling group follows segment order (numeric
// where both segments are numeric), not plain string order.

// ValidTaskID reports whether id is a well-formed dotted identifier:
// non-empty segments separated by single dots.
func ValidTaskID(id string) bool {
	if id == "" {
		return false
	}
	for _, seg := range strings.Split(id, ".") {
		if seg == "" {
			return false
		}
	}
	return true
}

// ParentID returns the parent of id (all segments but the last), or ""
// for a root identifier.
func ParentID(id string) string {
	i := strings.LastIndexByte(id, '.')
	if i < 0 {
		return ""
	}
	return id[:i]
}

// Depth returns the segment count of id.
func Depth(id string) int {
	return strings.Count(id, ".") + 1
}

// IsChildOf reports whether id is a direct child of parent.
func IsChildOf(id, parent string) bool {
	return ParentID(id) == parent
}

// IsDescendantOf reports whether id lies anywhere under parent.
func IsDescendantOf(id, parent string) bool {
	return strings.HasPrefix(id, parent+".")
}

// CompareIDs orders two identifiers segment-wise. Numeric segments
// compare numerically, so "A.10" sorts after "A.9".
func CompareIDs(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			return an - bn
		}
		return strings.Compare(as[i], bs[i])
	}
	return len(as) - len(bs)
}

// ChildIndex returns the numeric value of the last segment of id, or -1
// if the segment is not numeric.
func ChildIndex(id string) int {
	seg := id
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		seg = id[i+1:]
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return -1
	}
	return n
}

// NextChildID returns the next available child identifier under parent.
// Child indices are monotonic: max existing index + 1, where "existing"
// spans both the supplied active tasks and previously archived IDs, so
// identifiers are never reused.
func NextChildID(parent string, tasks []*Task, archivedIDs map[string]bool) string {
	max := 0
	consider := func(id string) {
		if !IsChildOf(id, parent) {
			return
		}
		if n := ChildIndex(id); n > max {
			max = n
		}
	}
	for _, t := range tasks {
		consider(t.ID)
	}
	for id := range archivedIDs {
		consider(id)
	}
	idx := strconv.Itoa(max + 1)
	if parent == "" {
		return idx
	}
	return parent + "." + idx
}
