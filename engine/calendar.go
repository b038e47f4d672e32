/*
calendar.go - Working-day and holiday resolution

PURPOSE:
  Resolves, for a company, which calendar dates are non-working: the weekly
  off-day (default Sunday), the half-day (default Saturday, contributing 0.5
  of a working day), and public holidays, which are either fixed dates or
  recur on the same month/day every year.

DAY WEIGHTS:
  holiday      0
  off-day      0
  half-day     0.5
  otherwise    1

  CountWorkingDays sums weights over an inclusive range, so a Monday-Sunday
  week with default policy and no holidays is 5 + 0.5 + 0 = 5.5 days.

RECURRING HOLIDAYS:
  A recurring holiday is stored with its original date but matched on
  month/day only, re-projected onto whichever year the queried date falls
  in. A range spanning several years therefore matches the holiday once per
  year.

RETURN DATES:
  NextWorkingDay starts the day AFTER the given date and skips holidays and
  off-days. Half-days still count as working for return-date purposes: an
  employee returning on a Saturday half-day returns on that Saturday.

SEE ALSO:
  - types.go: WeekPolicy inputs live on LeaveSettings
  - leave/request.go: uses CountWorkingDays for requested_days
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WEEK POLICY
// =============================================================================

// WeekPolicy is the configured weekly pattern. Derived from LeaveSettings;
// the zero value means every day is a full working day.
type WeekPolicy struct {
	OffDay  *time.Weekday // full day off, weight 0
	HalfDay *time.Weekday // weight 0.5
}

// WeekPolicyFrom builds the week pattern from company settings.
func WeekPolicyFrom(s LeaveSettings) WeekPolicy {
	var p WeekPolicy
	if s.SundayOff {
		sun := time.Sunday
		p.OffDay = &sun
	}
	if s.SaturdayHalfDay {
		sat := time.Saturday
		p.HalfDay = &sat
	}
	return p
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is a public holiday scoped to a company. Recurring holidays keep
// their month/day and are interpreted in the reference year.
type Holiday struct {
	ID        string
	CompanyID string
	Date      Date
	Name      string
	Recurring bool
}

// Matches reports whether the holiday falls on the given date.
func (h Holiday) Matches(d Date) bool {
	if h.Recurring {
		return h.Date.Month() == d.Month() && h.Date.Day() == d.Day()
	}
	return h.Date.Equal(d)
}

// HolidaySet is an immutable collection of holidays for one company,
// typically loaded once per date-range query.
type HolidaySet struct {
	holidays []Holiday
}

func NewHolidaySet(holidays []Holiday) HolidaySet {
	return HolidaySet{holidays: holidays}
}

// Contains reports whether any holiday in the set falls on the date.
func (hs HolidaySet) Contains(d Date) bool {
	for _, h := range hs.holidays {
		if h.Matches(d) {
			return true
		}
	}
	return false
}

// =============================================================================
// CALENDAR - Week policy + holiday set for one company
// =============================================================================

// Calendar answers working-day questions for a single company.
type Calendar struct {
	Week     WeekPolicy
	Holidays HolidaySet
}

func NewCalendar(settings LeaveSettings, holidays []Holiday) Calendar {
	return Calendar{
		Week:     WeekPolicyFrom(settings),
		Holidays: NewHolidaySet(holidays),
	}
}

var (
	zero = decimal.Zero
	half = decimal.NewFromFloat(0.5)
	one  = decimal.NewFromInt(1)
)

// DayWeight returns how much of a working day the date contributes:
// 0 for holidays and off-days, 0.5 for half-days, 1 otherwise.
func (c Calendar) DayWeight(d Date) decimal.Decimal {
	if c.Holidays.Contains(d) {
		return zero
	}
	wd := d.Weekday()
	if c.Week.OffDay != nil && wd == *c.Week.OffDay {
		return zero
	}
	if c.Week.HalfDay != nil && wd == *c.Week.HalfDay {
		return half
	}
	return one
}

// IsWorkingDay reports whether the date contributes any work at all.
// Half-days count as working.
func (c Calendar) IsWorkingDay(d Date) bool {
	return c.DayWeight(d).IsPositive()
}

// CountWorkingDays sums day weights over [start, end] inclusive. Returns
// zero for an inverted range.
func (c Calendar) CountWorkingDays(start, end Date) decimal.Decimal {
	total := zero
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		total = total.Add(c.DayWeight(d))
	}
	return total
}

// NextWorkingDay returns the first working day strictly after the given
// date.
func (c Calendar) NextWorkingDay(after Date) Date {
	d := after.AddDays(1)
	for !c.IsWorkingDay(d) {
		d = d.AddDays(1)
	}
	return d
}

// =============================================================================
// RANGE OVERLAP
// =============================================================================

// RangesOverlap reports whether two inclusive date ranges intersect.
// Used to reject a leave application that collides with one already
// pending or approved.
func RangesOverlap(s1, e1, s2, e2 Date) bool {
	return s1.BeforeOrEqual(e2) && e1.AfterOrEqual(s2)
}
