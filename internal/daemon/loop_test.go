package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T) (*Loop, context.CancelFunc, chan error) {
	t.Helper()
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return l, cancel, done
}

func TestLoop_RunsInOrder(t *testing.T) {
	l, cancel, done := runLoop(t)
	defer func() { cancel(); <-done }()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	require.True(t, l.Call(func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_PostFromInside(t *testing.T) {
	l, cancel, done := runLoop(t)
	defer func() { cancel(); <-done }()

	inner := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(inner) })
	})

	select {
	case <-inner:
	case <-time.After(time.Second):
		t.Fatal("nested post did not run")
	}
}

func TestLoop_CancelStops(t *testing.T) {
	l, cancel, done := runLoop(t)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.False(t, l.Post(func() {}))
	assert.False(t, l.Call(func() { t.Error("ran after stop") }))
}

func TestLoop_Stop(t *testing.T) {
	l, cancel, done := runLoop(t)
	defer cancel()

	l.Post(l.Stop)
	assert.NoError(t, <-done)
	assert.False(t, l.Post(func() {}))

	// Idempotent
	l.Stop()
}
