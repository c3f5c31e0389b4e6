package models

import "time"

// Now returns the current UTC time truncated to milliseconds, the precision
// every storage backend round-trips exactly.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
