package domain

import "strings"

// InvokeResult is what one blocking agent call produced. The loop never
// parses the agent's natural-language output for task content; captured
// output is used only for failure classification.
type InvokeResult struct {
	Output   string // Combined stdout/stderr, possibly empty
	ExitCode int
}

// Failed reports whether the invocation must be treated as a failure:
// nonzero exit or no output at all.
func (r *InvokeResult) Failed() bool {
	return r.ExitCode != 0 || strings.TrimSpace(r.Output) == ""
}

// FailureKind classifies a failed agent invocation.
type FailureKind int

const (
	// FailureNone means the invocation did not fail.
	FailureNone FailureKind = iota
	// FailureAuth covers authentication and billing errors. Retrying
	// blindly cannot help; the loop escalates immediately.
	FailureAuth
	// FailureTransient covers rate limits, overload and server errors.
	// Retried with a backoff delay.
	FailureTransient
	// FailureTask is any other failure. It counts toward the iteration
	// cap with no special backoff.
	FailureTask
)

// String returns a short label for logging.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureAuth:
		return "auth"
	case FailureTransient:
		return "transient"
	default:
		return "task"
	}
}

var (
	authMarkers = []string{
		"invalid api key",
		"authentication_error",
		"credit balance",
		"billing",
		"please run /login",
	}
	transientMarkers = []string{
		"rate limit",
		"rate_limit",
		"overloaded",
		"api_error",
		"internal server error",
		"500",
		"529",
		"timed out",
		"timeout",
	}
)

// ClassifyFailure inspects a failed invocation's output and sorts it
// into the failure taxonomy. Unrecognized output is a task failure.
func ClassifyFailure(r *InvokeResult) FailureKind {
	if !r.Failed() {
		return FailureNone
	}
	out := strings.ToLower(r.Output)
	for _, m := range authMarkers {
		if strings.Contains(out, m) {
			return FailureAuth
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(out, m) {
			return FailureTransient
		}
	}
	return FailureTask
}
