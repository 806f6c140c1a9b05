package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is the package-level time source used when validating event times.
// Tests freeze it via SetClock so "now" substitutions are deterministic.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

func now() time.Time {
	return clock.Now().UTC()
}
