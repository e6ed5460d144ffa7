package scheduling

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMonthFormat indicates a month string could not be parsed as "yyyy-MM".
var ErrInvalidMonthFormat = errors.New("scheduling: invalid month format")

const monthLayout = "2006-01"

// Month identifies a calendar month without a day component.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses the "yyyy-MM" wire representation used by projects and
// work plans (for example "2026-02").
func ParseMonth(value string) (Month, error) {
	parsed, err := time.Parse(monthLayout, value)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonthFormat, value)
	}
	return Month{Year: parsed.Year(), Month: parsed.Month()}, nil
}

// MonthOf returns the month containing the supplied instant.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String renders the month in its "yyyy-MM" wire representation.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Before reports whether m falls strictly before other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// IsZero reports whether the month is unset.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// FirstDay returns midnight on the first day of the month in loc.
func (m Month) FirstDay(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// LastDay returns midnight on the last day of the month in loc.
func (m Month) LastDay(loc *time.Location) time.Time {
	return m.FirstDay(loc).AddDate(0, 1, -1)
}
