/*
Package engine is the pure calculation core of the leave platform.

PURPOSE:
  Everything in this package is a synchronous, deterministic function over
  explicit inputs: dates, company settings, leave-type configuration, and
  numbers. There are no clock reads, no storage access, and no shared
  mutable state. The leave package orchestrates these calculations against
  a store; the engine itself can be called concurrently from any number of
  request-handling goroutines.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: a day-granularity point in time (leave is tracked in days)
  - LeaveSettings: the per-company policy record every formula reads
  - LeaveTypeConfig: one leave category (annual, sick, maternity, ...)
  - EmployeeSnapshot: the slice of employee data the engine needs

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every day count and monetary value
  2. Explicit time: reference dates are parameters, never time.Now()
  3. Required fields: settings are one canonical struct populated at
     construction, not nullable fields coalesced at each call site

SEE ALSO:
  - calendar.go: working-day and holiday resolution
  - period.go: fiscal/anniversary period starts
  - accrual.go: pro-rata accrual of annual entitlement
*/
package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

// Date is a calendar day in UTC. All leave arithmetic is day-based; wall
// clock time never participates in a formula.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its UTC calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Year(), t.UTC().Month(), t.UTC().Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// DaysBetween returns the whole number of days from a to b (negative if b
// precedes a).
func DaysBetween(a, b Date) int {
	return int(b.Time.Sub(a.Time).Hours() / 24)
}

// MaxDate returns the later of two dates.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// IsLeapYear reports whether the given calendar year has 366 days.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// =============================================================================
// ENUMS
// =============================================================================

// AccrualBasis anchors the accrual period either to the company fiscal year
// or to each employee's individual hire anniversary.
type AccrualBasis string

const (
	BasisCalendarYear AccrualBasis = "CALENDAR_YEAR"
	BasisAnniversary  AccrualBasis = "ANNIVERSARY"
)

// Gender is the normalized gender used by leave-type eligibility filters.
type Gender string

const (
	GenderAll    Gender = "All"
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// NormalizeGender maps free-form employee gender values onto the canonical
// set. Unrecognized values become GenderOther, which only matches leave
// types open to All.
func NormalizeGender(raw string) Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	case "", "all", "any":
		return GenderAll
	default:
		return GenderOther
	}
}

// RoundingMode selects how a cash-out value is rounded to cents.
type RoundingMode string

const (
	RoundNearest RoundingMode = "ROUND" // half-up
	RoundFloor   RoundingMode = "FLOOR"
	RoundCeil    RoundingMode = "CEIL"
)

// JobLevel gates the CEO step of the approval chain.
type JobLevel string

const (
	LevelStaff     JobLevel = "Staff"
	LevelManager   JobLevel = "Manager"
	LevelDirector  JobLevel = "Director"
	LevelExecutive JobLevel = "Executive"
)

// RequiresCEOApproval reports whether applications from this level visit the
// CEO after HR approval.
func (l JobLevel) RequiresCEOApproval() bool {
	switch l {
	case LevelManager, LevelDirector, LevelExecutive:
		return true
	default:
		return false
	}
}

// =============================================================================
// COMPANY LEAVE SETTINGS
// =============================================================================

// LeaveSettings is the per-company policy singleton. It is read-mostly:
// created once per company, updated by admins, and passed by value into
// every calculation.
type LeaveSettings struct {
	CompanyID            string
	FiscalYearStartMonth time.Month // 1-12
	Basis                AccrualBasis
	AccrualDivisor       int // 365 gets the leap-year correction

	// Week pattern
	SaturdayHalfDay bool
	SundayOff       bool

	// Encashment policy
	EncashmentEnabled  bool
	SalaryDivisor      decimal.Decimal  // monthly salary / divisor = daily rate
	MaxEncashmentDays  *decimal.Decimal // nil = uncapped
	EncashmentRounding RoundingMode
}

// DefaultSettings returns the baseline policy: calendar-year accrual
// starting January, 365 divisor, Saturday half / Sunday off, encashment at
// salary/30 with standard rounding.
func DefaultSettings(companyID string) LeaveSettings {
	return LeaveSettings{
		CompanyID:            companyID,
		FiscalYearStartMonth: time.January,
		Basis:                BasisCalendarYear,
		AccrualDivisor:       365,
		SaturdayHalfDay:      true,
		SundayOff:            true,
		EncashmentEnabled:    true,
		SalaryDivisor:        decimal.NewFromInt(30),
		EncashmentRounding:   RoundNearest,
	}
}

// =============================================================================
// LEAVE TYPE CONFIGURATION
// =============================================================================

// LeaveTypeConfig identifies one leave category and its entitlement rule.
// Referenced, never owned, by balances and applications.
type LeaveTypeConfig struct {
	ID   string
	Code string // e.g. ANNUAL, SICK, MATERNITY
	Name string

	DefaultAllowanceDays decimal.Decimal
	IncrementDays        decimal.Decimal // bonus days per completed period
	IncrementPeriodYears int             // period length in years; 0 = no growth
	MaxAccrualCap        *decimal.Decimal

	ApplicableGender      Gender
	CarryOverExpiryMonths int
}

// IsAnnual reports whether this type accrues pro-rata through the engine.
// Every other type uses the simpler flat/prorated allocation rule.
func (c LeaveTypeConfig) IsAnnual() bool {
	return strings.EqualFold(c.Code, "ANNUAL")
}

// EligibleFor applies the gender filter: a type is offered when it is open
// to All or matches the employee's normalized gender.
func (c LeaveTypeConfig) EligibleFor(g Gender) bool {
	return c.ApplicableGender == GenderAll || c.ApplicableGender == g
}

// =============================================================================
// EMPLOYEE SNAPSHOT
// =============================================================================

// EmployeeSnapshot is the read-only employee data the engine consumes:
// join date from the earliest active employment (or account creation),
// normalized gender, and the active employment's monthly gross salary.
type EmployeeSnapshot struct {
	ID            string
	CompanyID     string
	JoinDate      Date
	Gender        Gender
	JobLevel      JobLevel
	MonthlySalary decimal.Decimal
}
