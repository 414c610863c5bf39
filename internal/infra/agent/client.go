// Package agent invokes the external coding agent as a subprocess. The
// agent is opaque: the loop hands it a composed prompt and consumes
// only its exit status and captured output.
package agent

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/musher-dev/musher/internal/domain"
)

// Client implements domain.Agent by spawning the configured command
// with the prompt appended as the final argument (e.g. claude -p
// "<prompt>").
type Client struct {
	command string
	dir     string
	args    []string
	timeout time.Duration
}

// NewClient creates an agent client from configuration. dir is the
// working directory the agent runs in (the repository root).
func NewClient(cfg domain.AgentConfig, dir string) *Client {
	return &Client{
		command: cfg.Command,
		args:    cfg.Args,
		timeout: cfg.Timeout,
		dir:     dir,
	}
}

// Invoke runs one blocking agent call. The call is bounded by the
// configured per-invocation ceiling; a timed-out run is reported as a
// failed invocation, not an error, so the loop's retry policy applies.
func (c *Client) Invoke(ctx context.Context, prompt string) (*domain.InvokeResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := make([]string, 0, len(c.args)+1)
	args = append(args, c.args...)
	args = append(args, prompt)

	//nolint:gosec // command and args come from operator configuration
	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = c.dir

	out, err := cmd.CombinedOutput()
	result := &domain.InvokeResult{Output: string(out)}
	if err == nil {
		return result, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		// Classified downstream as a transient failure.
		result.ExitCode = -1
		result.Output += "\nagent invocation timed out"
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	// The command could not be started at all (missing binary, bad
	// permissions). That is an operator problem, not an agent failure.
	return nil, fmt.Errorf("invoke agent %q: %w", c.command, err)
}

// Ensure Client implements domain.Agent.
var _ domain.Agent = (*Client)(nil)
