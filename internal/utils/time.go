package utils

import (
	"time"
	_ "time/tzdata"
)

// UnixTimeToTime converts a Unix timestamp to a time.Time object
func UnixTimeToTime(unixTime int64) time.Time {
	return time.Unix(unixTime, 0)
}

// FormatLocal renders t as dd/mm/yyyy hh:mm:ss in the named zone, falling
// back to UTC when the zone cannot be loaded.
func FormatLocal(t time.Time, zone string) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02/01/2006 15:04:05")
}
