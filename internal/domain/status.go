package domain

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending  Status = "pending"  // Created, awaiting work
	StatusActive   Status = "active"   // Claimed by the loop, agent working
	StatusSplit    Status = "split"    // Decomposed into children; no longer directly workable
	StatusBlocked  Status = "blocked"  // Needs operator intervention (reason recorded)
	StatusComplete Status = "complete" // Finished; eligible for merge and archival
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusActive,
		StatusSplit,
		StatusBlocked,
		StatusComplete,
	}
}

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSplit, StatusBlocked, StatusComplete:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further agent work happens on a task in
// this status. Split parents are terminal for selection purposes; they
// re-enter the loop only through the verify pass.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusBlocked
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusActive:
		return "Active"
	case StatusSplit:
		return "Split"
	case StatusBlocked:
		return "Blocked"
	case StatusComplete:
		return "Complete"
	default:
		return string(s)
	}
}
