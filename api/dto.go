/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the domain
  model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DECIMAL FIELDS:
  Day counts and money are decimal.Decimal end to end and marshal as JSON
  strings ("7.63"), never floats. Clients doing arithmetic on leave
  balances should parse them with a decimal library too.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Route definitions
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email,omitempty"`
	Gender        string          `json:"gender"`
	JobLevel      string          `json:"job_level"`
	JoinDate      string          `json:"join_date"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
}

// CreateEmployeeRequest is the request to create or update an employee.
type CreateEmployeeRequest struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Gender        string          `json:"gender"`
	JobLevel      string          `json:"job_level"`
	JoinDate      string          `json:"join_date"` // YYYY-MM-DD
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
}

// =============================================================================
// ACCRUAL AND BALANCES
// =============================================================================

// AccrualDTO is the accrual engine's answer for one leave type.
type AccrualDTO struct {
	EmployeeID        string          `json:"employee_id"`
	LeaveTypeID       string          `json:"leave_type_id"`
	AsOf              string          `json:"as_of"`
	PeriodStart       string          `json:"period_start"`
	DaysInPeriod      int             `json:"days_in_period"`
	DailyRate         decimal.Decimal `json:"daily_rate"`
	AccruedDays       decimal.Decimal `json:"accrued_days"`
	AnnualEntitlement decimal.Decimal `json:"annual_entitlement"`
	TenureBonusDays   decimal.Decimal `json:"tenure_bonus_days"`
	YearsOfService    decimal.Decimal `json:"years_of_service"`
}

// BalanceDTO is one ledger row.
type BalanceDTO struct {
	LeaveTypeID      string          `json:"leave_type_id"`
	FiscalYear       int             `json:"fiscal_year"`
	TotalEntitlement decimal.Decimal `json:"total_entitlement"`
	UsedDays         decimal.Decimal `json:"used_days"`
	PendingDays      decimal.Decimal `json:"pending_days"`
	RemainingDays    decimal.Decimal `json:"remaining_days"`
	ExpiryDate       string          `json:"expiry_date,omitempty"`
}

// InitializeBalancesResponse reports the initialization outcome.
type InitializeBalancesResponse struct {
	FiscalYear   int `json:"fiscal_year"`
	CreatedCount int `json:"created_count"`
}

// =============================================================================
// APPLICATIONS
// =============================================================================

// SubmitApplicationRequest is the request body for a new leave application.
type SubmitApplicationRequest struct {
	LeaveTypeID string `json:"leave_type_id"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date"`
	Reason      string `json:"reason,omitempty"`
}

// TransitionRequest applies one approval-chain action.
type TransitionRequest struct {
	Action  string `json:"action"` // approve | reject | cancel
	ActorID string `json:"actor_id"`
}

// ApplicationDTO represents a leave application.
type ApplicationDTO struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employee_id"`
	LeaveTypeID   string          `json:"leave_type_id"`
	FiscalYear    int             `json:"fiscal_year"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	ReturnDate    string          `json:"return_date"`
	RequestedDays decimal.Decimal `json:"requested_days"`
	Status        string          `json:"status"`
	Reason        string          `json:"reason,omitempty"`
	ActedBy       string          `json:"acted_by,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// =============================================================================
// CASH-OUT
// =============================================================================

// CashOutQuoteDTO is the encashment preview.
type CashOutQuoteDTO struct {
	EmployeeID    string          `json:"employee_id"`
	FiscalYear    int             `json:"fiscal_year"`
	AccruedDays   decimal.Decimal `json:"accrued_days"`
	UsedDays      decimal.Decimal `json:"used_days"`
	PendingDays   decimal.Decimal `json:"pending_days"`
	RemainingDays decimal.Decimal `json:"remaining_days"`
	EligibleDays  decimal.Decimal `json:"eligible_days"`
	DailyRate     decimal.Decimal `json:"daily_rate"`
	CashValue     decimal.Decimal `json:"cash_value"`
	IsEligible    bool            `json:"is_eligible"`
}

// SubmitCashOutRequest is the request body for an encashment.
type SubmitCashOutRequest struct {
	Days decimal.Decimal `json:"days"`
}

// CashOutDecisionRequest identifies the approver acting on a request.
type CashOutDecisionRequest struct {
	ApproverID string `json:"approver_id"`
}

// CashOutDTO represents a cash-out request.
type CashOutDTO struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employee_id"`
	FiscalYear    int             `json:"fiscal_year"`
	DaysCashedOut decimal.Decimal `json:"days_cashed_out"`
	CashValue     decimal.Decimal `json:"cash_value"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
	SalaryDivisor decimal.Decimal `json:"salary_divisor"`
	Status        string          `json:"status"`
	ApproverID    string          `json:"approver_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SettingsDTO mirrors engine.LeaveSettings on the wire.
type SettingsDTO struct {
	CompanyID            string           `json:"company_id"`
	FiscalYearStartMonth int              `json:"fiscal_year_start_month"`
	AccrualBasis         string           `json:"accrual_basis"`
	AccrualDivisor       int              `json:"accrual_divisor"`
	SaturdayHalfDay      bool             `json:"saturday_half_day"`
	SundayOff            bool             `json:"sunday_off"`
	EncashmentEnabled    bool             `json:"encashment_enabled"`
	SalaryDivisor        decimal.Decimal  `json:"salary_divisor"`
	MaxEncashmentDays    *decimal.Decimal `json:"max_encashment_days,omitempty"`
	EncashmentRounding   string           `json:"encashment_rounding"`
}

// LeaveTypeDTO mirrors engine.LeaveTypeConfig on the wire.
type LeaveTypeDTO struct {
	ID                    string           `json:"id"`
	CompanyID             string           `json:"company_id,omitempty"`
	Code                  string           `json:"code"`
	Name                  string           `json:"name"`
	DefaultAllowanceDays  decimal.Decimal  `json:"default_allowance_days"`
	IncrementDays         decimal.Decimal  `json:"increment_days"`
	IncrementPeriodYears  int              `json:"increment_period_years"`
	MaxAccrualCap         *decimal.Decimal `json:"max_accrual_cap,omitempty"`
	ApplicableGender      string           `json:"applicable_gender"`
	CarryOverExpiryMonths int              `json:"carryover_expiry_months"`
}

// HolidayDTO represents a public holiday.
type HolidayDTO struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(e sqlite.EmployeeRecord) EmployeeDTO {
	return EmployeeDTO{
		ID:            e.ID,
		CompanyID:     e.CompanyID,
		Name:          e.Name,
		Email:         e.Email,
		Gender:        string(e.Gender),
		JobLevel:      string(e.JobLevel),
		JoinDate:      e.JoinDate.String(),
		MonthlySalary: e.MonthlySalary,
	}
}

func toBalanceDTO(b leave.Balance) BalanceDTO {
	dto := BalanceDTO{
		LeaveTypeID:      b.LeaveTypeID,
		FiscalYear:       b.FiscalYear,
		TotalEntitlement: b.TotalEntitlement,
		UsedDays:         b.UsedDays,
		PendingDays:      b.PendingDays,
		RemainingDays:    b.Remaining(),
	}
	if !b.ExpiryDate.IsZero() {
		dto.ExpiryDate = b.ExpiryDate.String()
	}
	return dto
}

func toApplicationDTO(a leave.Application) ApplicationDTO {
	return ApplicationDTO{
		ID:            a.ID,
		EmployeeID:    a.EmployeeID,
		LeaveTypeID:   a.LeaveTypeID,
		FiscalYear:    a.FiscalYear,
		StartDate:     a.StartDate.String(),
		EndDate:       a.EndDate.String(),
		ReturnDate:    a.ReturnDate.String(),
		RequestedDays: a.RequestedDays,
		Status:        string(a.Status),
		Reason:        a.Reason,
		ActedBy:       a.ActedBy,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

func toCashOutDTO(r leave.CashOutRequest) CashOutDTO {
	return CashOutDTO{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		FiscalYear:    r.FiscalYear,
		DaysCashedOut: r.DaysCashedOut,
		CashValue:     r.CashValue,
		MonthlySalary: r.MonthlySalary,
		SalaryDivisor: r.SalaryDivisor,
		Status:        string(r.Status),
		ApproverID:    r.ApproverID,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}

func toSettingsDTO(s engine.LeaveSettings) SettingsDTO {
	return SettingsDTO{
		CompanyID:            s.CompanyID,
		FiscalYearStartMonth: int(s.FiscalYearStartMonth),
		AccrualBasis:         string(s.Basis),
		AccrualDivisor:       s.AccrualDivisor,
		SaturdayHalfDay:      s.SaturdayHalfDay,
		SundayOff:            s.SundayOff,
		EncashmentEnabled:    s.EncashmentEnabled,
		SalaryDivisor:        s.SalaryDivisor,
		MaxEncashmentDays:    s.MaxEncashmentDays,
		EncashmentRounding:   string(s.EncashmentRounding),
	}
}

func fromSettingsDTO(dto SettingsDTO) engine.LeaveSettings {
	return engine.LeaveSettings{
		CompanyID:            dto.CompanyID,
		FiscalYearStartMonth: time.Month(dto.FiscalYearStartMonth),
		Basis:                engine.AccrualBasis(dto.AccrualBasis),
		AccrualDivisor:       dto.AccrualDivisor,
		SaturdayHalfDay:      dto.SaturdayHalfDay,
		SundayOff:            dto.SundayOff,
		EncashmentEnabled:    dto.EncashmentEnabled,
		SalaryDivisor:        dto.SalaryDivisor,
		MaxEncashmentDays:    dto.MaxEncashmentDays,
		EncashmentRounding:   engine.RoundingMode(dto.EncashmentRounding),
	}
}

func toLeaveTypeDTO(lt engine.LeaveTypeConfig) LeaveTypeDTO {
	return LeaveTypeDTO{
		ID:                    lt.ID,
		Code:                  lt.Code,
		Name:                  lt.Name,
		DefaultAllowanceDays:  lt.DefaultAllowanceDays,
		IncrementDays:         lt.IncrementDays,
		IncrementPeriodYears:  lt.IncrementPeriodYears,
		MaxAccrualCap:         lt.MaxAccrualCap,
		ApplicableGender:      string(lt.ApplicableGender),
		CarryOverExpiryMonths: lt.CarryOverExpiryMonths,
	}
}

func fromLeaveTypeDTO(dto LeaveTypeDTO) engine.LeaveTypeConfig {
	return engine.LeaveTypeConfig{
		ID:                    dto.ID,
		Code:                  dto.Code,
		Name:                  dto.Name,
		DefaultAllowanceDays:  dto.DefaultAllowanceDays,
		IncrementDays:         dto.IncrementDays,
		IncrementPeriodYears:  dto.IncrementPeriodYears,
		MaxAccrualCap:         dto.MaxAccrualCap,
		ApplicableGender:      engine.Gender(dto.ApplicableGender),
		CarryOverExpiryMonths: dto.CarryOverExpiryMonths,
	}
}

func toHolidayDTO(h engine.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		CompanyID: h.CompanyID,
		Date:      h.Date.String(),
		Name:      h.Name,
		Recurring: h.Recurring,
	}
}
