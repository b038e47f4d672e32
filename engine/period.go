package engine

import "time"

// =============================================================================
// PERIOD RESOLUTION - Which accrual period does a date fall into?
// =============================================================================

// ResolvePeriodStart computes the start of the accrual period containing
// referenceDate.
//
// CALENDAR_YEAR basis: the most recent (year, fiscalStartMonth, 1) on or
// before referenceDate. A reference date before the fiscal start month
// falls into the previous calendar year's period.
//
// ANNIVERSARY basis: the join date's month/day projected onto the reference
// year, or the previous year's projection if that lands after
// referenceDate. A February 29 anniversary snaps to the last day of
// February in non-leap years.
func ResolvePeriodStart(basis AccrualBasis, fiscalStartMonth time.Month, joinDate, referenceDate Date) Date {
	switch basis {
	case BasisAnniversary:
		return anniversaryStart(joinDate, referenceDate)
	default:
		return fiscalStart(fiscalStartMonth, referenceDate)
	}
}

func fiscalStart(month time.Month, ref Date) Date {
	start := NewDate(ref.Year(), month, 1)
	if start.After(ref) {
		start = NewDate(ref.Year()-1, month, 1)
	}
	return start
}

func anniversaryStart(join, ref Date) Date {
	start := projectAnniversary(join, ref.Year())
	if start.After(ref) {
		start = projectAnniversary(join, ref.Year()-1)
	}
	return start
}

// projectAnniversary places the join date's month/day into the target year.
// Feb 29 in a non-leap year becomes Feb 28.
func projectAnniversary(join Date, year int) Date {
	if join.Month() == time.February && join.Day() == 29 && !IsLeapYear(year) {
		return NewDate(year, time.February, 28)
	}
	return NewDate(year, join.Month(), join.Day())
}

// AccrualStart is the effective start of accrual: an employee cannot accrue
// before they joined, even if the nominal period started earlier.
func AccrualStart(periodStart, joinDate Date) Date {
	return MaxDate(periodStart, joinDate)
}

// PeriodEnd returns the last day of the period beginning at start.
func PeriodEnd(start Date) Date {
	return start.AddYears(1).AddDays(-1)
}

// FiscalYear labels the period by the year its start falls in. Ledger rows
// are keyed by (employee, leave type, fiscal year).
func FiscalYear(periodStart Date) int {
	return periodStart.Year()
}

// ExpiryDate returns when a balance's carried-over days lapse: the period
// end pushed out by the leave type's carry-over months. Zero months means
// no expiry and the zero Date is returned.
func ExpiryDate(periodStart Date, carryOverMonths int) Date {
	if carryOverMonths <= 0 {
		return Date{}
	}
	return PeriodEnd(periodStart).AddMonths(carryOverMonths)
}
