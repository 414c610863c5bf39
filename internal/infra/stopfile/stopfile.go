// Package stopfile implements the graceful-stop signal as a marker
// file. The wrapper (or the operator) drops the file; the loop checks
// for it only between iterations and exits cleanly when present.
package stopfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/musher-dev/musher/internal/domain"
)

// Signal implements domain.StopSignal over .musher/stop.
type Signal struct {
	path string
}

// New creates a stop signal over the state directory.
func New(musherDir string) *Signal {
	return &Signal{path: domain.StopPath(musherDir)}
}

// Requested reports whether the stop file exists.
func (s *Signal) Requested() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the stop file. Clearing an absent file is not an
// error.
func (s *Signal) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear stop signal: %w", err)
	}
	return nil
}

// Set drops the stop file.
func (s *Signal) Set() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("set stop signal: %w", err)
	}
	return f.Close()
}

// Ensure Signal implements domain.StopSignal.
var _ domain.StopSignal = (*Signal)(nil)
