package model

import "time"

// Millis converts an instant to epoch milliseconds, the representation used
// by both store boundaries. The zero time maps to 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis is the inverse of Millis: 0 maps back to the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// DateFormat is the wire/storage layout of WellnessEntry.Date.
const DateFormat = "2006-01-02"

// DayBounds returns the start and end instants of the calendar day
// containing t, in t's location.
func DayBounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end = start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}
