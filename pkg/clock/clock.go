package clock

import "time"

// Clock abstracts the wall clock so staleness checks can be tested
// deterministically instead of reading time.Now directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the real wall clock.
func System() Clock { return systemClock{} }

// Fixed returns a clock frozen at t. Intended for tests.
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }
