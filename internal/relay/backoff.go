package relay

import (
	"math/rand/v2"
	"time"
)

// backoff doubles from base up to max. Every wait gets up to a quarter of
// itself added as jitter so replicas do not poll in lockstep.
type backoff struct {
	base, max, cur time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	if max < base {
		max = base
	}
	return &backoff{base: base, max: max}
}

func (b *backoff) next() time.Duration {
	switch {
	case b.cur == 0:
		b.cur = b.base
	case b.cur*2 > b.max:
		b.cur = b.max
	default:
		b.cur *= 2
	}
	return b.jitter(b.cur)
}

func (b *backoff) reset() { b.cur = 0 }

func (b *backoff) jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(d/4+1)
}
