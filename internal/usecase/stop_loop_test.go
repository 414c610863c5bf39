package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musher-dev/musher/internal/testutil"
)

func TestStopLoop_Execute(t *testing.T) {
	stop := &testutil.MockStopSignal{}
	uc := NewStopLoop(stop)

	_, err := uc.Execute(context.Background(), StopLoopInput{})
	require.NoError(t, err)
	assert.True(t, stop.Stopped)
}
