package common

import (
	"fmt"
	"strings"
	"time"
)

type DurationPrecision int

const (
	DurationPrecisionSeconds DurationPrecision = iota
	DurationPrecisionMinutes
	DurationPrecisionHours
	DurationPrecisionDays
)

// HumanizeDuration renders a duration as e.g. "2 hours 5 minutes", cutting
// off at the given precision
func HumanizeDuration(precision DurationPrecision, in time.Duration) string {
	if in < 0 {
		in = -in
	}

	days := int(in.Hours()) / 24
	hours := int(in.Hours()) % 24
	minutes := int(in.Minutes()) % 60
	seconds := int(in.Seconds()) % 60

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, pluralize(days, "day"))
	}
	if hours > 0 && precision <= DurationPrecisionHours {
		parts = append(parts, pluralize(hours, "hour"))
	}
	if minutes > 0 && precision <= DurationPrecisionMinutes {
		parts = append(parts, pluralize(minutes, "minute"))
	}
	if seconds > 0 && precision <= DurationPrecisionSeconds {
		parts = append(parts, pluralize(seconds, "second"))
	}

	if len(parts) == 0 {
		switch precision {
		case DurationPrecisionDays:
			return "less than a day"
		case DurationPrecisionHours:
			return "less than an hour"
		case DurationPrecisionMinutes:
			return "less than a minute"
		default:
			return "moments"
		}
	}

	return strings.Join(parts, " ")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// ContainsStringSlice reports whether target is present in slice
func ContainsStringSlice(slice []string, target string) bool {
	for _, v := range slice {
		if v == target {
			return true
		}
	}
	return false
}
