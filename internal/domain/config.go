package domain

import "time"

// Config represents the application configuration.
type Config struct {
	Loop  LoopConfig  // [loop] settings
	Agent AgentConfig // [agent] settings
	Git   GitConfig   // [git] settings
	Log   LogConfig   // [log] settings
}

// LoopConfig holds iteration loop settings from the [loop] section.
type LoopConfig struct {
	MaxIterations           int           // Per-task iteration cap before stuck recovery
	PollInterval            time.Duration // Idle sleep in daemon mode
	IterationDelay          time.Duration // Settle delay between iterations
	ConsecutiveFailureLimit int           // Global halt threshold across tasks
}

// AgentConfig holds external agent settings from the [agent] section.
type AgentConfig struct {
	Command string        // Agent executable
	Args    []string      // Arguments placed before the prompt
	Timeout time.Duration // Per-invocation ceiling (0 = none)
}

// GitConfig holds git workflow settings from the [git] section.
type GitConfig struct {
	IntegrationBranch string // Branch task work is squash-merged into
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string // debug, info, warn, error
}

// NewDefaultConfig returns the configuration used when keys are absent.
// Values mirror the loop's historical defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Loop: LoopConfig{
			MaxIterations:           20,
			PollInterval:            5 * time.Second,
			IterationDelay:          2 * time.Second,
			ConsecutiveFailureLimit: 5,
		},
		Agent: AgentConfig{
			Command: "claude",
			Args:    []string{"-p"},
			Timeout: time.Hour,
		},
		Git: GitConfig{
			IntegrationBranch: "main",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// TransientBackoff is the retry schedule for transient agent failures.
// Attempts beyond the schedule reuse the final delay.
var TransientBackoff = []time.Duration{
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
	60 * time.Second,
}

// BackoffDelay returns the delay for the n-th consecutive transient
// failure (1-based).
func BackoffDelay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	if n > len(TransientBackoff) {
		n = len(TransientBackoff)
	}
	return TransientBackoff[n-1]
}
