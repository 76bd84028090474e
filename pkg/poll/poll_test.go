package poll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexliaai/corretor/pkg/poll"
)

type countingSleeper struct {
	calls []time.Duration
}

func (s *countingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func TestUntilExhaustsAfterExactlyMaxAttempts(t *testing.T) {
	sleeper := &countingSleeper{}
	checks := 0

	attempts, err := poll.Until(context.Background(), poll.Config{Interval: time.Second, MaxAttempts: 4}, sleeper,
		func(ctx context.Context, attempt int) (bool, error) {
			checks++
			return false, nil
		})

	require.ErrorIs(t, err, poll.ErrExhausted)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, 4, checks)
	assert.Len(t, sleeper.calls, 3, "no sleep after the last attempt")
	for _, d := range sleeper.calls {
		assert.Equal(t, time.Second, d)
	}
}

func TestUntilStopsWhenDone(t *testing.T) {
	sleeper := &countingSleeper{}

	attempts, err := poll.Until(context.Background(), poll.Config{Interval: time.Millisecond, MaxAttempts: 10}, sleeper,
		func(ctx context.Context, attempt int) (bool, error) {
			return attempt == 3, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, sleeper.calls, 2)
}

func TestUntilReturnsCheckError(t *testing.T) {
	boom := errors.New("status endpoint down")

	attempts, err := poll.Until(context.Background(), poll.Config{MaxAttempts: 5}, &countingSleeper{},
		func(ctx context.Context, attempt int) (bool, error) {
			if attempt == 2 {
				return false, boom
			}
			return false, nil
		})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, attempts)
}

func TestUntilHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts, err := poll.Until(ctx, poll.Config{Interval: time.Hour, MaxAttempts: 5}, poll.TimerSleeper{},
		func(ctx context.Context, attempt int) (bool, error) {
			cancel()
			return false, nil
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestUntilRejectsNonPositiveAttempts(t *testing.T) {
	_, err := poll.Until(context.Background(), poll.Config{MaxAttempts: 0}, nil,
		func(ctx context.Context, attempt int) (bool, error) {
			t.Fatal("check should not run")
			return false, nil
		})

	assert.Error(t, err)
}

func TestSleeperFunc(t *testing.T) {
	var got time.Duration
	s := poll.SleeperFunc(func(ctx context.Context, d time.Duration) error {
		got = d
		return nil
	})

	require.NoError(t, s.Sleep(context.Background(), 3*time.Second))
	assert.Equal(t, 3*time.Second, got)
}
