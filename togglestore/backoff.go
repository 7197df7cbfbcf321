package togglestore

import (
	"context"
	"math/rand"
	"time"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// backoff paces retries of failed remote refreshes: exponential growth with
// jitter, capped, reset after a successful fetch.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: initialBackoff}
}

// next returns the delay before the next retry and advances the schedule.
func (b *backoff) next() time.Duration {
	// Up to 1s of jitter keeps clients from refreshing in lockstep.
	delay := b.current + time.Duration(rand.Int63n(int64(time.Second)))
	if b.current < maxBackoff {
		b.current *= 2
	}
	return delay
}

// reset returns the schedule to the initial delay.
func (b *backoff) reset() {
	b.current = initialBackoff
}

// wait sleeps for the next delay, or until ctx is done.
func (b *backoff) wait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(b.next()):
	}
}
