package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	numberPrefix = "WO"
	numberLayout = "20060102"

	// MaxDailySequence is the largest sequence a four digit suffix can carry.
	MaxDailySequence = 9999
)

var numberPattern = regexp.MustCompile(`^WO-(\d{8})-(\d{4})$`)

// FormatNumber renders WO-YYYYMMDD-NNNN for the given day and sequence.
func FormatNumber(day time.Time, seq int) (string, error) {
	if seq < 1 || seq > MaxDailySequence {
		return "", fmt.Errorf("work order sequence %d out of range", seq)
	}
	return fmt.Sprintf("%s-%s-%04d", numberPrefix, day.UTC().Format(numberLayout), seq), nil
}

// ParseNumber splits a work order number into its day and sequence.
func ParseNumber(number string) (time.Time, int, error) {
	m := numberPattern.FindStringSubmatch(number)
	if m == nil {
		return time.Time{}, 0, fmt.Errorf("invalid work order number %q", number)
	}
	day, err := time.ParseInLocation(numberLayout, m[1], time.UTC)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid work order date in %q: %w", number, err)
	}
	seq, _ := strconv.Atoi(m[2])
	if seq == 0 {
		return time.Time{}, 0, fmt.Errorf("invalid work order sequence in %q", number)
	}
	return day, seq, nil
}
