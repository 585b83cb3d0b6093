// Package prysmTime is a wrapper around the go standard time library. Having
// a single clock source makes it possible to swap the implementation, for
// example against a drift corrected clock, without touching call sites.
package prysmTime

import "time"

// Since returns the duration since t.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// Until returns the duration until t.
func Until(t time.Time) time.Duration {
	return t.Sub(Now())
}

// Now returns the current local time.
func Now() time.Time {
	return time.Now()
}
