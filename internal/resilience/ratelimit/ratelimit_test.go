package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock reports a controlled time and records every requested wait.
// After fires immediately unless blocked is set.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waits   []time.Duration
	blocked bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	if !c.blocked {
		ch <- c.now.Add(d)
	}
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

func TestIntervalLimiter_SequentialSpacing(t *testing.T) {
	clock := newFakeClock()
	l, err := NewIntervalLimiter(60, WithClock(clock))
	require.NoError(t, err)
	assert.Equal(t, time.Second, l.Interval())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}

	// first call is immediate, the next two wait for reserved slots
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clock.Waits())
}

func TestIntervalLimiter_NoWaitAfterIdle(t *testing.T) {
	clock := newFakeClock()
	l, err := NewIntervalLimiter(30, WithClock(clock))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx))
	clock.Advance(5 * time.Second)
	require.NoError(t, l.Wait(ctx))

	assert.Empty(t, clock.Waits())
}

func TestIntervalLimiter_PartialElapsed(t *testing.T) {
	clock := newFakeClock()
	l, err := NewIntervalLimiter(60, WithClock(clock))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx))
	clock.Advance(400 * time.Millisecond)
	require.NoError(t, l.Wait(ctx))

	assert.Equal(t, []time.Duration{600 * time.Millisecond}, clock.Waits())
}

func TestIntervalLimiter_ConcurrentCallersGetDistinctSlots(t *testing.T) {
	clock := newFakeClock()
	l, err := NewIntervalLimiter(120, WithClock(clock))
	require.NoError(t, err)

	const callers = 10
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Wait(context.Background()))
		}()
	}
	wg.Wait()

	waits := clock.Waits()
	require.Len(t, waits, callers-1)
	sort.Slice(waits, func(i, j int) bool { return waits[i] < waits[j] })
	for i, w := range waits {
		assert.Equal(t, time.Duration(i+1)*500*time.Millisecond, w)
	}
}

func TestIntervalLimiter_CancelWhileWaiting(t *testing.T) {
	clock := newFakeClock()
	clock.blocked = true
	l, err := NewIntervalLimiter(1, WithClock(clock))
	require.NoError(t, err)

	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Wait(ctx) }()

	require.Eventually(t, func() bool { return len(clock.Waits()) == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}

func TestIntervalLimiter_AlreadyCanceled(t *testing.T) {
	l, err := NewIntervalLimiter(60)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestNewIntervalLimiter_InvalidRate(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewIntervalLimiter(n)
		assert.Error(t, err, "calls per minute %d", n)
	}
}

func TestTokenBucket_Burst(t *testing.T) {
	b, err := NewTokenBucket(60, 3)
	require.NoError(t, err)
	assert.Equal(t, time.Second, b.Interval())

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Wait(short), context.DeadlineExceeded)
}

func TestUnlimited(t *testing.T) {
	assert.NoError(t, Unlimited{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Unlimited{}.Wait(ctx), context.Canceled)
}

func TestParseModeAndNew(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeInterval},
		{in: "interval", want: ModeInterval},
		{in: "TOKEN_BUCKET", want: ModeTokenBucket},
		{in: "none", want: ModeNone},
		{in: "leaky", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			gate, err := New(Config{Mode: got, CallsPerMinute: 60, Burst: 2})
			require.NoError(t, err)
			assert.NotNil(t, gate)
		})
	}

	_, err := New(Config{Mode: ModeInterval})
	assert.Error(t, err)
}
