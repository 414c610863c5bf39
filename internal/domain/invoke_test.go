package domain

import "testing"

func TestInvokeResult_Failed(t *testing.T) {
	tests := []struct {
		name   string
		result InvokeResult
		want   bool
	}{
		{"clean exit with output", InvokeResult{Output: "done", ExitCode: 0}, false},
		{"nonzero exit", InvokeResult{Output: "boom", ExitCode: 1}, true},
		{"no output", InvokeResult{Output: "", ExitCode: 0}, true},
		{"whitespace only", InvokeResult{Output: " \n", ExitCode: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name   string
		result InvokeResult
		want   FailureKind
	}{
		{"success", InvokeResult{Output: "ok", ExitCode: 0}, FailureNone},
		{"invalid key", InvokeResult{Output: "Error: Invalid API key", ExitCode: 1}, FailureAuth},
		{"credit balance", InvokeResult{Output: "credit balance is too low", ExitCode: 1}, FailureAuth},
		{"rate limit", InvokeResult{Output: "rate limit exceeded, retry later", ExitCode: 1}, FailureTransient},
		{"overloaded", InvokeResult{Output: "API temporarily overloaded (529)", ExitCode: 1}, FailureTransient},
		{"timeout", InvokeResult{Output: "request timed out", ExitCode: 1}, FailureTransient},
		{"plain failure", InvokeResult{Output: "tests failed", ExitCode: 1}, FailureTask},
		{"silent exit", InvokeResult{Output: "", ExitCode: 0}, FailureTask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyFailure(&tt.result); got != tt.want {
				t.Errorf("ClassifyFailure = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	if BackoffDelay(1) != TransientBackoff[0] {
		t.Error("first delay should be the schedule head")
	}
	if BackoffDelay(10) != TransientBackoff[len(TransientBackoff)-1] {
		t.Error("delays past the schedule should reuse the final value")
	}
	if BackoffDelay(0) != TransientBackoff[0] {
		t.Error("out-of-range attempt should clamp to the head")
	}
}
