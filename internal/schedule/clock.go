package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/reservalo/agenda-api/pkg/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ToMinutes parses an "HH:MM" clock time into minutes since midnight.
func ToMinutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, invalidClockTime(s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, invalidClockTime(s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, invalidClockTime(s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, invalidClockTime(s)
	}
	return hour*60 + minute, nil
}

// FromMinutes renders minutes since midnight as a zero-padded "HH:MM" string.
// Defined for 0 <= m < 1440 only; the slot walk never leaves the day.
func FromMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseDate parses an ISO calendar date ("2006-01-02").
func ParseDate(s string) (time.Time, error) {
	day, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidDate, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return day, nil
}

func invalidClockTime(s string) error {
	return appErrors.Clone(appErrors.ErrInvalidTimeFormat, fmt.Sprintf("invalid clock time %q, expected HH:MM", s))
}
