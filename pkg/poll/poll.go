// Package poll runs a bounded check-and-wait loop with a pluggable sleeper.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when MaxAttempts checks ran without reaching a terminal result.
var ErrExhausted = errors.New("poll attempts exhausted")

// Config bounds a polling loop.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// Sleeper waits between attempts. Implementations must return ctx.Err()
// when the context ends before the wait completes.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper sleeps on a real timer.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Check performs one attempt. done=true ends the loop successfully;
// a non-nil error ends it immediately with that error.
type Check func(ctx context.Context, attempt int) (done bool, err error)

// Until calls check up to cfg.MaxAttempts times, sleeping cfg.Interval between
// attempts but not after the last. It returns the number of attempts made and
// ErrExhausted when none of them reported done.
func Until(ctx context.Context, cfg Config, sleeper Sleeper, check Check) (int, error) {
	if cfg.MaxAttempts < 1 {
		return 0, fmt.Errorf("poll: max attempts must be positive, got %d", cfg.MaxAttempts)
	}
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		done, err := check(ctx, attempt)
		if err != nil {
			return attempt, err
		}
		if done {
			return attempt, nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}
		if err := sleeper.Sleep(ctx, cfg.Interval); err != nil {
			return attempt, err
		}
	}

	return cfg.MaxAttempts, ErrExhausted
}
