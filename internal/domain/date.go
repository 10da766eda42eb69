package domain

import (
	"fmt"
	"time"
)

// Date is a timezone-naive calendar day, stored as whole days since the
// Unix epoch. All date comparisons in the engine assume one consistent zone.
type Date int32

const dateLayout = "2006-01-02"

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date(t.Unix() / 86400)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate parses a YYYY-MM-DD string and panics on failure.
// Intended for fixtures and tests.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf truncates a time to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return Date(midnight.Unix() / 86400)
}

// Time returns the UTC midnight instant of the day.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("parse date %s: not a JSON string", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays returns the date shifted by n calendar days (n may be negative).
func (d Date) AddDays(n int) Date {
	return d + Date(n)
}

// Weekday returns the day of week.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// DateRange returns every calendar day in [start, end] ascending.
func DateRange(start, end Date) []Date {
	if end < start {
		return nil
	}
	out := make([]Date, 0, int(end-start)+1)
	for d := start; d <= end; d++ {
		out = append(out, d)
	}
	return out
}

// DatePtr is a convenience for building optional dates in fixtures.
func DatePtr(d Date) *Date {
	return &d
}
