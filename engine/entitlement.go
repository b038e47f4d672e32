/*
entitlement.go - Tenure-based entitlement growth

PURPOSE:
  Computes an employee's annual entitlement for a leave type: base days plus
  a bonus that grows with tenure (e.g. +1 day for every 2 completed years),
  capped at a configured maximum.

TWO YEARS-OF-SERVICE DEFINITIONS:
  The platform deliberately carries two tenure measures, applied to
  different leave-type classes:

  PreciseYearsOfService:    elapsed days / 365.25, a continuous fraction.
                            Used by the accrual engine for ANNUAL leave.
  CompletedYearsOfService:  whole years elapsed, counting a year only once
                            its anniversary has passed. Used by the flat
                            allocation rule for every other leave type.

  Unifying them silently would change existing balances; callers pick the
  one their leave-type class requires.

EXAMPLE:
  TenureEntitlement(16, 5, 2, 1, nil)
    completedPeriods = floor(5/2) = 2
    bonusDays        = 2 * 1     = 2
    entitlement      = 16 + 2    = 18
*/
package engine

import "github.com/shopspring/decimal"

var daysPerYear = decimal.NewFromFloat(365.25)

// EntitlementResult is the outcome of the tenure rule.
type EntitlementResult struct {
	Entitlement      decimal.Decimal
	BonusDays        decimal.Decimal
	CompletedPeriods int64
}

// TenureEntitlement applies the periodic bonus rule:
//
//	completedPeriods = floor(yearsOfService / incrementPeriodYears)
//	bonusDays        = completedPeriods * incrementAmount
//	entitlement      = min(baseDays + bonusDays, maxCap)
//
// A zero or negative increment period disables growth. A nil maxCap means
// uncapped.
func TenureEntitlement(baseDays, yearsOfService decimal.Decimal, incrementPeriodYears int, incrementAmount decimal.Decimal, maxCap *decimal.Decimal) EntitlementResult {
	result := EntitlementResult{
		Entitlement: baseDays,
		BonusDays:   decimal.Zero,
	}

	if incrementPeriodYears > 0 && incrementAmount.IsPositive() && yearsOfService.IsPositive() {
		periods := yearsOfService.Div(decimal.NewFromInt(int64(incrementPeriodYears))).Floor()
		result.CompletedPeriods = periods.IntPart()
		result.BonusDays = periods.Mul(incrementAmount)
		result.Entitlement = baseDays.Add(result.BonusDays)
	}

	if maxCap != nil && maxCap.IsPositive() && result.Entitlement.GreaterThan(*maxCap) {
		result.Entitlement = *maxCap
	}
	return result
}

// PreciseYearsOfService measures tenure as elapsed days divided by 365.25.
// This is the canonical measure for annual-leave accrual.
func PreciseYearsOfService(joinDate, asOf Date) decimal.Decimal {
	elapsed := DaysBetween(joinDate, asOf)
	if elapsed <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(elapsed)).Div(daysPerYear)
}

// CompletedYearsOfService counts whole years of tenure, crediting a year
// only after its anniversary has passed. Non-annual leave allocation uses
// this measure.
func CompletedYearsOfService(joinDate, asOf Date) int {
	if asOf.Before(joinDate) {
		return 0
	}
	years := asOf.Year() - joinDate.Year()
	anniversary := projectAnniversary(joinDate, asOf.Year())
	if anniversary.After(asOf) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// ElapsedMonths counts whole months between two dates, used to prorate
// first-year allocations of non-annual leave types.
func ElapsedMonths(from, to Date) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
