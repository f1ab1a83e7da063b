package store

import "time"

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
