// Package retry describes how many times, and how far apart, a blind
// operation such as the sleep hand-off is repeated.
package retry

import (
	"time"

	"git.home.luguber.info/inful/lorasensor/internal/config"
)

// Policy is a value type; copies are independent.
type Policy struct {
	Mode        config.RetryBackoffMode
	Initial     time.Duration // zero disables waiting between attempts
	Max         time.Duration
	MaxAttempts int // includes the first attempt
}

// DefaultPolicy is five attempts one second apart.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffFixed, Initial: time.Second, Max: time.Second, MaxAttempts: 5}
}

// NewPolicy overlays configured values on DefaultPolicy. Non-positive
// attempts and an unknown mode keep the default; max is widened to initial.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, attempts int) Policy {
	p := DefaultPolicy()
	if attempts > 0 {
		p.MaxAttempts = attempts
	}
	if initial >= 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if mode == config.RetryBackoffLinear || mode == config.RetryBackoffExponential {
		p.Mode = mode
	}
	p.Max = max(p.Max, p.Initial)
	return p
}

// Delay is the pause after the given 1-based attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.Initial <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffLinear:
		d = time.Duration(attempt) * p.Initial
	case config.RetryBackoffExponential:
		if attempt > 30 {
			return p.Max
		}
		d = p.Initial << (attempt - 1)
	default:
		return p.Initial
	}
	return min(d, p.Max)
}

// Budget is the worst case time spent pausing across all attempts.
func (p Policy) Budget() time.Duration {
	var total time.Duration
	for a := 1; a <= p.MaxAttempts; a++ {
		total += p.Delay(a)
	}
	return total
}
