package core

import "time"

// Clock supplies the current time. Core components never read time.Now
// directly so tests can pin timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed civil timezone.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.Location)
}

// FixedClock always reports the same instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Instant
}
