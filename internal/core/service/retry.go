package service

import "time"

// RetryPolicy returns the extra delay added to a poll interval after a
// number of consecutive failures of that poll.
type RetryPolicy interface {
	Delay(failures int) time.Duration
}

// FixedInterval retries on the next regular tick.
type FixedInterval struct{}

func (FixedInterval) Delay(int) time.Duration { return 0 }

// ExponentialBackoff doubles the extra delay per consecutive failure,
// starting at Base and capped at Max.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b ExponentialBackoff) Delay(failures int) time.Duration {
	if failures <= 0 || b.Base <= 0 {
		return 0
	}
	d := b.Base
	for i := 1; i < failures; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}
