package usecase

import (
	"context"
	"fmt"

	"github.com/musher-dev/musher/internal/domain"
)

// StopLoopInput contains the parameters for requesting a stop.
type StopLoopInput struct{}

// StopLoopOutput contains the result of requesting a stop.
type StopLoopOutput struct{}

// StopLoop is the use case for asking a running loop to exit. The
// request is a marker file; the loop honors it between iterations, so a
// running agent invocation always finishes first.
type StopLoop struct {
	stop domain.StopSignal
}

// NewStopLoop creates a new StopLoop use case.
func NewStopLoop(stop domain.StopSignal) *StopLoop {
	return &StopLoop{stop: stop}
}

// Execute records the stop request.
func (uc *StopLoop) Execute(_ context.Context, _ StopLoopInput) (*StopLoopOutput, error) {
	if err := uc.stop.Set(); err != nil {
		return nil, fmt.Errorf("set stop signal: %w", err)
	}
	return &StopLoopOutput{}, nil
}
