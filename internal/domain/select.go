package domain

import "slices"

// Mode marks how the agent should approach the selected task.
type Mode string

const (
	// ModeWork is the normal pass: complete the task or split it.
	ModeWork Mode = "work"
	// ModeVerify re-evaluates a split parent once all children finished:
	// confirm the original goal or add further children.
	ModeVerify Mode = "verify"
)

// NextWorkable scans tasks in store order and returns the next task to
// drive, with the mode to drive it in. The scan order is deliberate:
// operator-declared file order, not a priority queue.
//
// Pass priority:
//  1. an active leaf (resume work interrupted by a crash or restart);
//  2. the first pending leaf;
//  3. a split parent whose children have all completed (verify pass) —
//     completed children may already live in the archive, so "all
//     complete" means no child in the active store is still pending,
//     active, split, or blocked, and at least one child ever existed.
//
// Returns (nil, "") when nothing is workable. That is a normal idle
// state, not an error.
func NextWorkable(tasks []*Task, archivedIDs map[string]bool) (*Task, Mode) {
	for _, t := range tasks {
		if t.Leaf && t.Status == StatusActive {
			return t, ModeWork
		}
	}
	for _, t := range tasks {
		if t.Leaf && t.Status == StatusPending {
			return t, ModeWork
		}
	}
	for _, t := range tasks {
		if t.Status != StatusSplit {
			continue
		}
		if childrenSettled(t.ID, tasks, archivedIDs) {
			return t, ModeVerify
		}
	}
	return nil, ""
}

// childrenSettled reports whether parent had at least one child and none
// of them still needs work.
func childrenSettled(parent string, tasks []*Task, archivedIDs map[string]bool) bool {
	seen := false
	for _, t := range tasks {
		if !IsChildOf(t.ID, parent) {
			continue
		}
		seen = true
		if t.Status != StatusComplete {
			return false
		}
	}
	if seen {
		return true
	}
	for id := range archivedIDs {
		if IsChildOf(id, parent) {
			return true
		}
	}
	return false
}

// ChildrenOf returns the direct children of parent from tasks, ordered
// by numeric child index.
func ChildrenOf(parent string, tasks []*Task) []*Task {
	var out []*Task
	for _, t := range tasks {
		if IsChildOf(t.ID, parent) {
			out = append(out, t)
		}
	}
	sortByID(out)
	return out
}

// SubtreeOf returns the task with the given id and all its descendants
// at any depth, ordered by ID.
func SubtreeOf(id string, tasks []*Task) []*Task {
	var out []*Task
	for _, t := range tasks {
		if t.ID == id || IsDescendantOf(t.ID, id) {
			out = append(out, t)
		}
	}
	sortByID(out)
	return out
}

// ByID returns the task with the given id, or nil.
func ByID(id string, tasks []*Task) *Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func sortByID(tasks []*Task) {
	slices.SortFunc(tasks, func(a, b *Task) int {
		return CompareIDs(a.ID, b.ID)
	})
}
