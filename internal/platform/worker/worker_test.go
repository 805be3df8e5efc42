package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	errBusy   = errors.New("busy")
	errBroken = errors.New("broken")
)

func TestLoop_RunsOnStartAndOnTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, Config{
			Name:       "sync",
			Interval:   10 * time.Millisecond,
			RunOnStart: true,
			Process: func(context.Context) error {
				if calls.Add(1) >= 3 {
					cancel()
				}

				return errBroken
			},
		})
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}

	require.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestLoop_RejectsNonPositiveInterval(t *testing.T) {
	err := Loop(context.Background(), Config{Name: "sync"})

	require.ErrorIs(t, err, errNonPositiveInterval)
}

func TestRunPass_AppliesTimeout(t *testing.T) {
	var hadDeadline bool

	runPass(context.Background(), Config{
		Timeout: time.Minute,
		Process: func(ctx context.Context) error {
			_, hadDeadline = ctx.Deadline()
			return nil
		},
	}, getLogger(nil))

	require.True(t, hadDeadline)
}

func TestRunPass_RecoversPanicAndSkippable(t *testing.T) {
	require.NotPanics(t, func() {
		runPass(context.Background(), Config{
			Process: func(context.Context) error { panic("boom") },
		}, getLogger(nil))
	})

	require.NotPanics(t, func() {
		runPass(context.Background(), Config{
			Skippable: []error{errBusy},
			Process:   func(context.Context) error { return errBusy },
		}, getLogger(nil))
	})
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
