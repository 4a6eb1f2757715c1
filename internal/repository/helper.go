package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseTime parses a date string in "2006-01-02" or RFC3339 format.
// Mirrors validation.ParseTime; both are kept local to avoid cross-layer imports.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse("2006-01-02", str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}

// ParseDecimal parses a decimal column stored as TEXT. Empty strings read
// back as zero so partially seeded rows do not fail a whole scan.
func ParseDecimal(str string) (decimal.Decimal, error) {
	if str == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse decimal: %w", err)
	}
	return d, nil
}

// placeholders returns a "?,?,?" list sized for an IN clause.
func placeholders(n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = "?"
	}
	return strings.Join(p, ",")
}
