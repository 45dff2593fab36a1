package worker

import (
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{name: "first retry", attempt: 1, min: 2 * time.Second, max: 2*time.Second + backoffJitter},
		{name: "second retry", attempt: 2, min: 4 * time.Second, max: 4*time.Second + backoffJitter},
		{name: "third retry", attempt: 3, min: 8 * time.Second, max: 8*time.Second + backoffJitter},
		{name: "capped", attempt: 20, min: backoffCap, max: backoffCap + backoffJitter},
		{name: "zero treated as first", attempt: 0, min: 2 * time.Second, max: 2*time.Second + backoffJitter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExponentialBackoff(tt.attempt)

			if got < tt.min || got > tt.max {
				t.Fatalf("ExponentialBackoff(%d) = %v, want in [%v, %v]", tt.attempt, got, tt.min, tt.max)
			}
		})
	}
}

func TestExponentialBackoffMonotonicUpToCap(t *testing.T) {
	prev := time.Duration(0)

	// attempt 8 is 256s, the last step below the 5m cap
	for attempt := 1; attempt <= 8; attempt++ {
		got := ExponentialBackoff(attempt) - backoffJitter // strip jitter upper bound

		if got < prev {
			t.Fatalf("backoff shrank at attempt %d: %v < %v", attempt, got, prev)
		}

		if got > prev {
			prev = got
		}
	}
}
