package utils

import (
	"fmt"
	"time"
)

// ParseRFC3339 parses an incident timestamp such as the opened and
// resolved times carried by imported historical records.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}

// ResolutionMinutes returns the minutes between an incident's open and
// resolve timestamps. Reversed arguments are tolerated; imported records
// occasionally carry them swapped.
func ResolutionMinutes(opened, resolved time.Time) float64 {
	if resolved.Before(opened) {
		opened, resolved = resolved, opened
	}
	return resolved.Sub(opened).Minutes()
}
