package server

import (
	"strconv"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// parseDate accepts YYYY-MM-DD or RFC3339 and returns the value in UTC.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, newValidationError("date", "invalid_date", "date is required")
	}

	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}

	parsed, err := time.Parse(dateOnlyLayout, value)
	if err != nil {
		return time.Time{}, newValidationError("date", "invalid_date", "date must be YYYY-MM-DD or RFC3339")
	}
	return parsed.UTC(), nil
}

func parseLimit(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultListLimit, nil
	}

	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return 0, newValidationError("limit", "invalid_limit", "limit must be a positive integer")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}
