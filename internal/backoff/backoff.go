// Package backoff implements the adaptive rate-limit backoff shared by all
// verification calls of one client. The delay only ever grows: a request
// that gets throttled raises the starting point for every later request,
// and nothing lowers it again until the process restarts. A delay that
// would exceed the configured ceiling aborts the run instead of waiting.
package backoff

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ExhaustedError reports that the backoff ceiling was exceeded. It aborts
// the whole run, unlike per-request failures.
type ExhaustedError struct {
	// Attempts is the total number of rate-limit signals seen by this
	// controller over its lifetime.
	Attempts int
	// Delay is the delay that would have been slept had the ceiling
	// allowed it.
	Delay time.Duration
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("backoff exhausted after %d rate-limit signals (next delay %v exceeds ceiling)", e.Attempts, e.Delay)
}

// Controller owns the shared backoff state for one verification client.
// Calls are sequential in practice, but the state is mutex-protected so
// independent controllers in tests never interfere and reads always see
// consistent values.
type Controller struct {
	mu           sync.Mutex
	currentDelay time.Duration
	attempts     int

	delayCeiling time.Duration

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a controller with the given initial delay and ceiling.
func New(initialDelay, delayCeiling time.Duration) *Controller {
	return &Controller{
		currentDelay: initialDelay,
		delayCeiling: delayCeiling,
		sleep:        sleepCtx,
	}
}

// Wait handles one rate-limit signal: it sleeps for the current shared
// delay and then doubles it, so the next signal anywhere in the run waits
// longer. It returns the delay that was slept. If the current delay
// already exceeds the ceiling it returns an *ExhaustedError without
// sleeping; a context cancellation during the sleep returns the context
// error.
func (c *Controller) Wait(ctx context.Context) (time.Duration, error) {
	c.mu.Lock()
	c.attempts++
	d := c.currentDelay
	if d > c.delayCeiling {
		err := &ExhaustedError{Attempts: c.attempts, Delay: d}
		c.mu.Unlock()
		return 0, err
	}
	c.mu.Unlock()

	if err := c.sleep(ctx, d); err != nil {
		return 0, err
	}

	c.mu.Lock()
	// Guard keeps currentDelay monotonically non-decreasing even if an
	// unexpected concurrent caller advanced it further already.
	if next := d * 2; next > c.currentDelay {
		c.currentDelay = next
	}
	c.mu.Unlock()
	return d, nil
}

// Attempts returns the total rate-limit signals seen so far.
func (c *Controller) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// CurrentDelay returns the delay the next rate-limit signal would sleep.
func (c *Controller) CurrentDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentDelay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
