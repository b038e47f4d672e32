/*
Package factory turns JSON configuration into engine types.

PURPOSE:
  Converts JSON leave-type and company-settings definitions into
  engine.LeaveTypeConfig and engine.LeaveSettings. HR defines leave policy
  in JSON; the factory validates it and applies defaults, so policy changes
  never require a code change.

JSON SCHEMA (leave type):
  {
    "id": "lt-annual",
    "code": "ANNUAL",
    "name": "Annual Leave",
    "default_allowance_days": "16",
    "increment_days": "1",
    "increment_period_years": 2,
    "max_accrual_cap": "22",
    "applicable_gender": "All",
    "carryover_expiry_months": 3
  }

JSON SCHEMA (settings):
  {
    "company_id": "co-1",
    "fiscal_year_start_month": 1,
    "accrual_basis": "CALENDAR_YEAR",
    "accrual_divisor": 365,
    "saturday_half_day": true,
    "sunday_off": true,
    "encashment_enabled": true,
    "salary_divisor": "30",
    "max_encashment_days": "10",
    "encashment_rounding": "ROUND"
  }

USAGE:
  lt, err := factory.ParseLeaveType(jsonBytes)
  settings, err := factory.ParseSettings(jsonBytes)

  // Or start from the canned catalog:
  for _, lt := range factory.DefaultLeaveTypes() { ... }

SEE ALSO:
  - engine/types.go: The target types
  - cmd/server/main.go: Seeds the store from this package
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LeaveTypeJSON is the JSON representation of a leave category.
type LeaveTypeJSON struct {
	ID                    string           `json:"id,omitempty"`
	Code                  string           `json:"code"`
	Name                  string           `json:"name"`
	DefaultAllowanceDays  decimal.Decimal  `json:"default_allowance_days"`
	IncrementDays         decimal.Decimal  `json:"increment_days,omitempty"`
	IncrementPeriodYears  int              `json:"increment_period_years,omitempty"`
	MaxAccrualCap         *decimal.Decimal `json:"max_accrual_cap,omitempty"`
	ApplicableGender      string           `json:"applicable_gender,omitempty"`
	CarryOverExpiryMonths int              `json:"carryover_expiry_months,omitempty"`
}

// SettingsJSON is the JSON representation of a company's leave policy.
type SettingsJSON struct {
	CompanyID            string           `json:"company_id"`
	FiscalYearStartMonth int              `json:"fiscal_year_start_month,omitempty"`
	AccrualBasis         string           `json:"accrual_basis,omitempty"`
	AccrualDivisor       int              `json:"accrual_divisor,omitempty"`
	SaturdayHalfDay      *bool            `json:"saturday_half_day,omitempty"`
	SundayOff            *bool            `json:"sunday_off,omitempty"`
	EncashmentEnabled    *bool            `json:"encashment_enabled,omitempty"`
	SalaryDivisor        decimal.Decimal  `json:"salary_divisor,omitempty"`
	MaxEncashmentDays    *decimal.Decimal `json:"max_encashment_days,omitempty"`
	EncashmentRounding   string           `json:"encashment_rounding,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseLeaveType validates a JSON leave-type definition and fills defaults:
// a generated id, gender All, no growth, no cap.
func ParseLeaveType(data []byte) (engine.LeaveTypeConfig, error) {
	var j LeaveTypeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return engine.LeaveTypeConfig{}, fmt.Errorf("invalid leave type JSON: %w", err)
	}

	if j.Code == "" {
		return engine.LeaveTypeConfig{}, fmt.Errorf("leave type code is required")
	}
	if j.Name == "" {
		return engine.LeaveTypeConfig{}, fmt.Errorf("leave type name is required")
	}
	if !j.DefaultAllowanceDays.IsPositive() {
		return engine.LeaveTypeConfig{}, fmt.Errorf("leave type %s: default_allowance_days must be positive", j.Code)
	}
	if j.IncrementPeriodYears < 0 {
		return engine.LeaveTypeConfig{}, fmt.Errorf("leave type %s: increment_period_years cannot be negative", j.Code)
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.ApplicableGender == "" {
		j.ApplicableGender = string(engine.GenderAll)
	}

	return engine.LeaveTypeConfig{
		ID:                    j.ID,
		Code:                  j.Code,
		Name:                  j.Name,
		DefaultAllowanceDays:  j.DefaultAllowanceDays,
		IncrementDays:         j.IncrementDays,
		IncrementPeriodYears:  j.IncrementPeriodYears,
		MaxAccrualCap:         j.MaxAccrualCap,
		ApplicableGender:      engine.Gender(j.ApplicableGender),
		CarryOverExpiryMonths: j.CarryOverExpiryMonths,
	}, nil
}

// ParseSettings validates a JSON settings definition. Omitted fields fall
// back to engine.DefaultSettings for the company.
func ParseSettings(data []byte) (engine.LeaveSettings, error) {
	var j SettingsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return engine.LeaveSettings{}, fmt.Errorf("invalid settings JSON: %w", err)
	}
	if j.CompanyID == "" {
		return engine.LeaveSettings{}, fmt.Errorf("company_id is required")
	}

	settings := engine.DefaultSettings(j.CompanyID)

	if j.FiscalYearStartMonth != 0 {
		if j.FiscalYearStartMonth < 1 || j.FiscalYearStartMonth > 12 {
			return engine.LeaveSettings{}, fmt.Errorf("fiscal_year_start_month must be 1-12, got %d", j.FiscalYearStartMonth)
		}
		settings.FiscalYearStartMonth = time.Month(j.FiscalYearStartMonth)
	}
	if j.AccrualBasis != "" {
		switch engine.AccrualBasis(j.AccrualBasis) {
		case engine.BasisCalendarYear, engine.BasisAnniversary:
			settings.Basis = engine.AccrualBasis(j.AccrualBasis)
		default:
			return engine.LeaveSettings{}, fmt.Errorf("unknown accrual_basis %q", j.AccrualBasis)
		}
	}
	if j.AccrualDivisor != 0 {
		settings.AccrualDivisor = j.AccrualDivisor
	}
	if j.SaturdayHalfDay != nil {
		settings.SaturdayHalfDay = *j.SaturdayHalfDay
	}
	if j.SundayOff != nil {
		settings.SundayOff = *j.SundayOff
	}
	if j.EncashmentEnabled != nil {
		settings.EncashmentEnabled = *j.EncashmentEnabled
	}
	if j.SalaryDivisor.IsPositive() {
		settings.SalaryDivisor = j.SalaryDivisor
	}
	settings.MaxEncashmentDays = j.MaxEncashmentDays
	if j.EncashmentRounding != "" {
		switch engine.RoundingMode(j.EncashmentRounding) {
		case engine.RoundNearest, engine.RoundFloor, engine.RoundCeil:
			settings.EncashmentRounding = engine.RoundingMode(j.EncashmentRounding)
		default:
			return engine.LeaveSettings{}, fmt.Errorf("unknown encashment_rounding %q", j.EncashmentRounding)
		}
	}
	return settings, nil
}

// =============================================================================
// CANNED CATALOG
// =============================================================================

// DefaultLeaveTypes returns the standard leave catalog new companies start
// from: annual with tenure growth, sick, and gender-filtered parental
// types.
func DefaultLeaveTypes() []engine.LeaveTypeConfig {
	cap22 := decimal.NewFromInt(22)
	return []engine.LeaveTypeConfig{
		{
			ID:                    "lt-annual",
			Code:                  "ANNUAL",
			Name:                  "Annual Leave",
			DefaultAllowanceDays:  decimal.NewFromInt(16),
			IncrementDays:         decimal.NewFromInt(1),
			IncrementPeriodYears:  2,
			MaxAccrualCap:         &cap22,
			ApplicableGender:      engine.GenderAll,
			CarryOverExpiryMonths: 3,
		},
		{
			ID:                   "lt-sick",
			Code:                 "SICK",
			Name:                 "Sick Leave",
			DefaultAllowanceDays: decimal.NewFromInt(10),
			ApplicableGender:     engine.GenderAll,
		},
		{
			ID:                   "lt-maternity",
			Code:                 "MATERNITY",
			Name:                 "Maternity Leave",
			DefaultAllowanceDays: decimal.NewFromInt(60),
			ApplicableGender:     engine.GenderFemale,
		},
		{
			ID:                   "lt-paternity",
			Code:                 "PATERNITY",
			Name:                 "Paternity Leave",
			DefaultAllowanceDays: decimal.NewFromInt(5),
			ApplicableGender:     engine.GenderMale,
		},
	}
}
