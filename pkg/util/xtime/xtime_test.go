package xtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicElapsedMovesForward(t *testing.T) {
	ts := New()

	e1 := ts.Elapsed()
	time.Sleep(10 * time.Millisecond)
	e2 := ts.Elapsed()

	assert.Greater(t, e2, e1)
}

func TestMonotonicExpectedEnd(t *testing.T) {
	ts := New()

	deadline := ts.ExpectedEnd(time.Hour)
	assert.False(t, ts.Expired(deadline))
	assert.Positive(t, ts.Remaining(deadline))

	// Zero timeout expires immediately.
	assert.True(t, ts.Expired(ts.ExpectedEnd(0)))
}

func TestMonotonicExpiredDeadline(t *testing.T) {
	ts := New()

	deadline := ts.ExpectedEnd(-time.Second)
	assert.True(t, ts.Expired(deadline))
	assert.Negative(t, ts.Remaining(deadline))
}

func TestManualAdvance(t *testing.T) {
	clock := NewManual()
	require.Equal(t, time.Duration(0), clock.Elapsed())

	deadline := clock.ExpectedEnd(time.Second)
	assert.False(t, clock.Expired(deadline))
	assert.Equal(t, time.Second, clock.Remaining(deadline))

	clock.Advance(500 * time.Millisecond)
	assert.False(t, clock.Expired(deadline))
	assert.Equal(t, 500*time.Millisecond, clock.Remaining(deadline))

	clock.Advance(500 * time.Millisecond)
	assert.True(t, clock.Expired(deadline))
	assert.Equal(t, time.Duration(0), clock.Remaining(deadline))

	clock.Advance(time.Second)
	assert.Negative(t, clock.Remaining(deadline))
}

func TestManualAdvanceBackwardsPanics(t *testing.T) {
	clock := NewManual()
	assert.PanicsWithValue(t, "xtime: manual clock cannot go backwards", func() {
		clock.Advance(-time.Second)
	})
}

func TestManualConcurrentAdvance(t *testing.T) {
	clock := NewManual()

	done := make(chan struct{})
	for range 10 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 100 {
				clock.Advance(time.Millisecond)
			}
		}()
	}
	for range 10 {
		<-done
	}

	assert.Equal(t, time.Second, clock.Elapsed())
}
