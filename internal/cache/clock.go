package cache

import "time"

// Clock provides the current time for expiry checks.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}
