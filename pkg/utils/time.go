package utils

import "time"

// ISOMillis is the JavaScript-compatible ISO-8601 layout used in API bodies.
const ISOMillis = "2006-01-02T15:04:05.000Z"

// NowISO returns the current UTC time in ISOMillis format
func NowISO() string {
	return FormatISO(time.Now())
}

// FormatISO renders t in UTC using ISOMillis
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}
