package port

import "time"

// Clock supplies the current time. Core operations never read the wall clock
// directly so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
