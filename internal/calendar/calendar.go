// Package calendar supplies business-day predicates and the business-day
// distance calculation used to turn resolved event dates into day counts.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"equity-events-lab/internal/domain"
)

// ErrCalendarRange is returned when a lookup falls outside the calendar's
// known range. The engine performs no silent clamping.
var ErrCalendarRange = errors.New("date outside calendar range")

// BusinessCalendar answers whether a day is a business day. Injected into
// the distance calculation, never owned by it.
type BusinessCalendar interface {
	IsBusinessDay(d domain.Date) (bool, error)
}

// RangeCalendar is a BusinessCalendar backed by an explicit business-day set
// over a closed date range.
type RangeCalendar struct {
	start domain.Date
	end   domain.Date
	days  map[domain.Date]struct{}
}

// NewWeekdayCalendar builds a calendar over [start, end] where Monday-Friday
// are business days, minus the given holidays.
func NewWeekdayCalendar(start, end domain.Date, holidays []domain.Date) (*RangeCalendar, error) {
	if end < start {
		return nil, fmt.Errorf("calendar range inverted: %s > %s", start, end)
	}

	skip := make(map[domain.Date]struct{}, len(holidays))
	for _, h := range holidays {
		skip[h] = struct{}{}
	}

	days := make(map[domain.Date]struct{})
	for d := start; d <= end; d++ {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if _, holiday := skip[d]; holiday {
			continue
		}
		days[d] = struct{}{}
	}

	return &RangeCalendar{start: start, end: end, days: days}, nil
}

// NewRangeCalendar builds a calendar from an explicit list of business days,
// e.g. rows loaded from a trading-day store. The known range is the closed
// span of the supplied days.
func NewRangeCalendar(businessDays []domain.Date) (*RangeCalendar, error) {
	if len(businessDays) == 0 {
		return nil, fmt.Errorf("no business days supplied")
	}

	days := make(map[domain.Date]struct{}, len(businessDays))
	start, end := businessDays[0], businessDays[0]
	for _, d := range businessDays {
		days[d] = struct{}{}
		if d < start {
			start = d
		}
		if d > end {
			end = d
		}
	}

	return &RangeCalendar{start: start, end: end, days: days}, nil
}

// IsBusinessDay reports whether d is a business day. Returns
// ErrCalendarRange for dates outside [start, end].
func (c *RangeCalendar) IsBusinessDay(d domain.Date) (bool, error) {
	if d < c.start || d > c.end {
		return false, fmt.Errorf("%w: %s not in [%s, %s]", ErrCalendarRange, d, c.start, c.end)
	}
	_, ok := c.days[d]
	return ok, nil
}

// Start returns the first day of the known range.
func (c *RangeCalendar) Start() domain.Date { return c.start }

// End returns the last day of the known range.
func (c *RangeCalendar) End() domain.Date { return c.end }

var _ BusinessCalendar = (*RangeCalendar)(nil)

// DaysBetween counts business days in the half-open interval [from, to),
// signed negative when to is before from. Adjacent business days are one
// day apart; from == to is zero. A pure function of two already-resolved
// dates plus a calendar; it performs no event resolution itself.
func DaysBetween(from, to domain.Date, cal BusinessCalendar) (int, error) {
	sign := 1
	lo, hi := from, to
	if to < from {
		sign = -1
		lo, hi = to, from
	}

	count := 0
	for d := lo; d < hi; d++ {
		biz, err := cal.IsBusinessDay(d)
		if err != nil {
			return 0, err
		}
		if biz {
			count++
		}
	}
	return sign * count, nil
}
