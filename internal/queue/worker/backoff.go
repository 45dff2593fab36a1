package worker

import (
	"math"
	"math/rand"
	"time"
)

const (
	backoffBase   = 2 * time.Second
	backoffCap    = 5 * time.Minute
	backoffJitter = 250 * time.Millisecond
)

// ExponentialBackoff returns the delay before the next attempt, with
// a small jitter to avoid thundering herds. attempt is the number of
// attempts already made, so the first retry waits around backoffBase.
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	multiple := math.Pow(2, float64(attempt-1))
	delay := time.Duration(float64(backoffBase) * multiple)

	if delay > backoffCap || delay <= 0 {
		delay = backoffCap
	}

	delay += time.Duration(rand.Int63n(int64(backoffJitter)))

	return delay
}
