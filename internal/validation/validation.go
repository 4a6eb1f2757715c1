package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID      = fmt.Errorf("invalid UUID format")
	ErrInvalidDateRange = fmt.Errorf("invalid date range")
)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ParseDateRange parses startDate/endDate query values and checks ordering.
// Empty values fall back to the given defaults.
func ParseDateRange(startStr, endStr string, defaultStart, defaultEnd time.Time) (time.Time, time.Time, error) {
	start, end := defaultStart, defaultEnd
	var err error

	if startStr != "" {
		if start, err = time.Parse("2006-01-02", startStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate: %w", err)
		}
	}
	if endStr != "" {
		if end, err = time.Parse("2006-01-02", endStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate: %w", err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start.UTC(), end.UTC(), nil
}
