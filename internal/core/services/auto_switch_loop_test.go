package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSwitcher struct {
	calls atomic.Int32
}

func (c *countingSwitcher) AutoSwitchIfNeeded() bool {
	return c.calls.Add(1)%2 == 0
}

func TestAutoSwitchLoop_TicksUntilCancelled(t *testing.T) {
	sw := &countingSwitcher{}
	loop := NewAutoSwitchLoop(testLogger(), sw, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Eventually(t, func() bool { return sw.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestAutoSwitchLoop_DefaultInterval(t *testing.T) {
	loop := NewAutoSwitchLoop(testLogger(), &countingSwitcher{}, 0)
	assert.Equal(t, 5*time.Minute, loop.interval)
}
