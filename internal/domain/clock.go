package domain

import "time"

// Clock supplies wall-clock time to reducers and command handlers.
// A nil Clock reads the system clock.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func (c Clock) Now() time.Time {
	if c == nil {
		return SystemClock()
	}
	return c()
}
