package retry

import (
	"context"
	"math/rand"
	"time"
)

// JitterKind selects how backoff durations are randomized.
type JitterKind string

const (
	JitterNone  JitterKind = "none"
	JitterFull  JitterKind = "full"
	JitterEqual JitterKind = "equal"
)

// Backoff describes an exponential backoff schedule. The zero value is
// usable and means "no delay".
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     JitterKind

	// rand overrides the jitter source in tests.
	rand func() float64
}

// Duration returns the backoff before the retry following failed attempt
// index attempt (zero-based).
func (b Backoff) Duration(attempt uint) time.Duration {
	d := b.Initial
	mult := b.Multiplier
	if mult <= 0 {
		mult = 1
	}
	for i := uint(0); i < attempt; i++ {
		d = time.Duration(float64(d) * mult)
		if d < 0 {
			d = 0
		}
		if b.Max > 0 && d > b.Max {
			d = b.Max
			break
		}
	}
	d = b.applyJitter(d)
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	if d < 0 {
		d = 0
	}
	return d
}

func (b Backoff) applyJitter(d time.Duration) time.Duration {
	random := b.rand
	if random == nil {
		random = rand.Float64
	}
	switch b.Jitter {
	case JitterNone, "":
		return d
	case JitterFull:
		return time.Duration(random() * float64(d))
	case JitterEqual:
		half := float64(d) / 2
		return time.Duration(half + random()*half)
	default:
		return d
	}
}

// DelayFunc adapts the schedule into a policy delay hook that sleeps with
// context awareness.
func (b Backoff) DelayFunc() func(ctx context.Context, attempt uint) error {
	return func(ctx context.Context, attempt uint) error {
		return Sleep(ctx, b.Duration(attempt))
	}
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
