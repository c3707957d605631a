package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts ISO 8601 strings (date only, date-time, with or without zone)
// and returns the instant in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	t, err := cast.ToTimeE(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}

	return t.UTC(), nil
}

// ParseRangeEnd parses an inclusive upper bound. A bare date covers the whole day.
func ParseRangeEnd(value string) (time.Time, error) {
	t, err := ParseDate(value)
	if err != nil {
		return t, err
	}

	if isDateOnly(value) {
		t = t.Add(24*time.Hour - time.Millisecond)
	}

	return t, nil
}

func isDateOnly(value string) bool {
	_, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	return err == nil
}

// ValidateDate is an ozzo-validation rule body for optional date strings (string or *string).
func ValidateDate(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v != nil {
			s = *v
		}
	}
	if s == "" {
		return nil
	}
	if _, err := ParseDate(s); err != nil {
		return errors.New("must be a valid ISO 8601 date")
	}
	return nil
}
