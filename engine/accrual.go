/*
accrual.go - Pro-rata accrual of annual entitlement

PURPOSE:
  Computes the fractional number of leave days an employee has earned as of
  a reference date. This is the heart of the platform: entitlement grows
  day by day through the accrual period and is capped at the annual total.

FORMULA:
  periodStart      = ResolvePeriodStart(basis, fiscalMonth, join, ref)
  accrualStart     = max(periodStart, joinDate)
  daysInPeriod     = daysBetween(accrualStart, ref) + 1   (start-inclusive)
  effectiveDivisor = 366 when divisor==365 and ref year is leap, else divisor
  dailyRate        = annualEntitlement / effectiveDivisor (4 dp)
  accruedDays      = min(round(daysInPeriod * dailyRate, 2), annualEntitlement)

LEAP-YEAR CORRECTION:
  Only the default 365 divisor is corrected to 366. A company that
  configured a custom divisor (360, 260 working days, ...) chose an exact
  denominator and gets it verbatim.

PURITY:
  AccruedBalance is referentially transparent. The reference date is an
  explicit parameter; identical inputs always produce identical outputs.

SEE ALSO:
  - period.go: period start resolution
  - entitlement.go: tenure-based annual entitlement
  - leave/balance.go: uses AccruedBalance when allocating ANNUAL balances
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCRUAL INPUT / RESULT
// =============================================================================

// AccrualInput carries every value the accrual formula reads. Nothing is
// fetched, defaulted, or inferred inside the engine.
type AccrualInput struct {
	JoinDate      Date
	ReferenceDate Date

	BaseDays             decimal.Decimal
	IncrementPeriodYears int
	IncrementDays        decimal.Decimal
	MaxCap               *decimal.Decimal

	Basis            AccrualBasis
	FiscalStartMonth int // 1-12
	Divisor          int // 365 triggers leap correction
}

// AccrualResult is the full accrual quote, including the entitlement
// metadata callers surface to users.
type AccrualResult struct {
	AccruedDays       decimal.Decimal
	DaysInPeriod      int
	DailyRate         decimal.Decimal
	PeriodStart       Date
	AnnualEntitlement decimal.Decimal
	TenureBonusDays   decimal.Decimal
	YearsOfService    decimal.Decimal
}

// =============================================================================
// ACCRUAL ENGINE
// =============================================================================

// AccruedBalance computes days earned as of the reference date.
//
// An employee whose accrual has not started yet (reference before join)
// gets zero accrued days with the entitlement metadata still populated, so
// callers can show "you will earn X per year" before eligibility.
func AccruedBalance(in AccrualInput) AccrualResult {
	periodStart := ResolvePeriodStart(in.Basis, monthOrJanuary(in.FiscalStartMonth), in.JoinDate, in.ReferenceDate)
	start := AccrualStart(periodStart, in.JoinDate)

	years := PreciseYearsOfService(in.JoinDate, in.ReferenceDate)
	ent := TenureEntitlement(in.BaseDays, years, in.IncrementPeriodYears, in.IncrementDays, in.MaxCap)

	result := AccrualResult{
		PeriodStart:       periodStart,
		AnnualEntitlement: ent.Entitlement,
		TenureBonusDays:   ent.BonusDays,
		YearsOfService:    years,
		DailyRate:         dailyRate(ent.Entitlement, in.Divisor, in.ReferenceDate.Year()),
	}

	if in.ReferenceDate.Before(start) {
		return result
	}

	result.DaysInPeriod = DaysBetween(start, in.ReferenceDate) + 1

	accrued := decimal.NewFromInt(int64(result.DaysInPeriod)).Mul(result.DailyRate).Round(2)
	if accrued.GreaterThan(ent.Entitlement) {
		accrued = ent.Entitlement
	}
	result.AccruedDays = accrued
	return result
}

// EffectiveDivisor applies the leap-year correction: 365 becomes 366 in a
// leap reference year; any other configured divisor is used as-is.
func EffectiveDivisor(divisor, referenceYear int) int {
	if divisor <= 0 {
		divisor = 365
	}
	if divisor == 365 && IsLeapYear(referenceYear) {
		return 366
	}
	return divisor
}

func dailyRate(entitlement decimal.Decimal, divisor, referenceYear int) decimal.Decimal {
	d := decimal.NewFromInt(int64(EffectiveDivisor(divisor, referenceYear)))
	return entitlement.Div(d).Round(4)
}

func monthOrJanuary(m int) time.Month {
	if m < 1 || m > 12 {
		return time.January
	}
	return time.Month(m)
}
