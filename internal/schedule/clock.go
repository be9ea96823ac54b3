// Package schedule computes store hours, tub occupancy and bookable slots.
// Everything in it is pure: callers pass the bookings to consider.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
)

const (
	minutesPerDay = 24 * 60
	dateLayout    = "2006-01-02"
)

// TimeToMinutes parses "HH:MM" into minutes since midnight.
func TimeToMinutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 ||
		!digits(parts[0]) || !digits(parts[1]) {
		return 0, &domain.FormatError{Value: s}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, &domain.FormatError{Value: s}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, &domain.FormatError{Value: s}
	}
	return h*60 + m, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MinutesToTime renders minutes since midnight as zero-padded "HH:MM".
func MinutesToTime(m int) (string, error) {
	if m < 0 || m >= minutesPerDay {
		return "", &domain.FormatError{Value: strconv.Itoa(m)}
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}

// mustTime is for values already known to lie within a day.
func mustTime(m int) string {
	s, err := MinutesToTime(m)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseDate parses a "YYYY-MM-DD" calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError("date", "must be formatted as YYYY-MM-DD")
	}
	return d, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
