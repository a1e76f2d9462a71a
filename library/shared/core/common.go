package core

import "time"

// ToStoredTime converts t to UTC with microsecond precision, the resolution of a PostgreSQL timestamp.
func ToStoredTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
