package formatter

import (
	"fmt"
	"time"
)

// TruncID shortens a UUID to its first 8 characters for table display.
func TruncID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// DayDate renders a millisecond timestamp as its local calendar date.
func DayDate(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02")
}

// ClockTime renders a millisecond timestamp as local HH:MM.
func ClockTime(ms int64) string {
	return time.UnixMilli(ms).Format("15:04")
}

// Minutes renders a millisecond duration as "Nmin".
func Minutes(ms int64) string {
	return fmt.Sprintf("%dmin", (ms+30_000)/60_000)
}

// Preview truncates a single-line preview of free text.
func Preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
