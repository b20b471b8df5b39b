package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RunsAndCollectsErrors(t *testing.T) {
	m := NewManager(4)
	var ran atomic.Int32
	boom := errors.New("boom")

	for i := range 3 {
		err := m.Go(context.Background(), "task", func(context.Context) error {
			ran.Add(1)
			if i == 0 {
				return boom
			}
			return nil
		})
		require.NoError(t, err)
	}

	err := m.Wait()
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 3, ran.Load())
}

func TestManager_LimitReached(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, m.Go(context.Background(), "blocker", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	err := m.Go(context.Background(), "extra", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrLimitReached)

	close(release)
	assert.NoError(t, m.Wait())
}

func TestManager_ClosedAndPanic(t *testing.T) {
	m := NewManager(0)

	require.NoError(t, m.Go(context.Background(), "panics", func(context.Context) error {
		panic("kaboom")
	}))
	require.NoError(t, m.Wait())

	err := m.Go(context.Background(), "late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestManager_CanceledContextSkipsTask(t *testing.T) {
	m := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	require.NoError(t, m.Go(ctx, "canceled", func(context.Context) error {
		ran.Store(true)
		return nil
	}))

	require.NoError(t, m.Wait())
	assert.False(t, ran.Load())
}
