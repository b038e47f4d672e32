/*
cashout.go - Leave encashment

PURPOSE:
  Values remaining annual-leave days in money and runs the request
  lifecycle: quote, submit, approve, reject.

VALUATION:
  dailyRate = monthlySalary / salaryDivisor
  value     = days * dailyRate, rounded to 2 dp per the company's mode

  The quote is computed from the accrued-to-date balance, not the full
  annual entitlement: an employee cannot cash out days they have not yet
  earned this period.

LIFECYCLE:
  PENDING -> APPROVED  (used_days incremented in the same transaction)
  PENDING -> REJECTED  (no balance change; nothing was reserved)

  At most one PENDING request per employee and fiscal year. The salary and
  divisor are snapshotted at submission.

SEE ALSO:
  - balance.go: consumeDirect, which approval uses to burn the days
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// PURE VALUATION
// =============================================================================

// Valuation is the money side of a cash-out computation.
type Valuation struct {
	DailyRate    decimal.Decimal
	RawValue     decimal.Decimal
	RoundedValue decimal.Decimal
}

// CashValue prices days of leave against a monthly salary. The divisor
// falls back to 30 when unset; the mode falls back to nearest.
func CashValue(days, monthlySalary, salaryDivisor decimal.Decimal, mode engine.RoundingMode) Valuation {
	if salaryDivisor.LessThanOrEqual(decimal.Zero) {
		salaryDivisor = decimal.NewFromInt(30)
	}
	rate := monthlySalary.Div(salaryDivisor)
	raw := days.Mul(rate)

	var rounded decimal.Decimal
	switch mode {
	case engine.RoundFloor:
		rounded = raw.RoundFloor(2)
	case engine.RoundCeil:
		rounded = raw.RoundCeil(2)
	default:
		rounded = raw.Round(2)
	}
	return Valuation{DailyRate: rate, RawValue: raw, RoundedValue: rounded}
}

// =============================================================================
// QUOTE
// =============================================================================

// CashOutQuote is the employee-facing preview of an encashment.
type CashOutQuote struct {
	EmployeeID  string
	LeaveTypeID string
	FiscalYear  int

	AccruedDays   decimal.Decimal
	UsedDays      decimal.Decimal
	PendingDays   decimal.Decimal
	RemainingDays decimal.Decimal
	EligibleDays  decimal.Decimal // remaining capped at the policy maximum

	DailyRate decimal.Decimal
	CashValue decimal.Decimal // value of EligibleDays

	IsEligible bool
}

// QuoteCashOut prices the employee's cashable annual leave as of a date.
// Returns engine.ErrConfigurationMissing when the company has no annual
// leave type configured.
func (s *Service) QuoteCashOut(ctx context.Context, employeeID string, asOf engine.Date) (CashOutQuote, error) {
	emp, settings, lt, err := s.annualContext(ctx, employeeID)
	if err != nil {
		return CashOutQuote{}, err
	}

	accrual := engine.AccruedBalance(accrualInput(lt, emp, settings, asOf))
	fiscalYear := engine.FiscalYear(accrual.PeriodStart)

	used, pending := decimal.Zero, decimal.Zero
	if b, err := s.store.Balance(ctx, employeeID, lt.ID, fiscalYear); err != nil {
		if !engine.IsNotFound(err) {
			return CashOutQuote{}, err
		}
	} else if b != nil {
		used, pending = b.UsedDays, b.PendingDays
	}

	remaining := accrual.AccruedDays.Sub(used).Sub(pending)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	eligible := remaining
	if settings.MaxEncashmentDays != nil && eligible.GreaterThan(*settings.MaxEncashmentDays) {
		eligible = *settings.MaxEncashmentDays
	}

	v := CashValue(eligible, emp.MonthlySalary, settings.SalaryDivisor, settings.EncashmentRounding)
	return CashOutQuote{
		EmployeeID:    employeeID,
		LeaveTypeID:   lt.ID,
		FiscalYear:    fiscalYear,
		AccruedDays:   accrual.AccruedDays,
		UsedDays:      used,
		PendingDays:   pending,
		RemainingDays: remaining,
		EligibleDays:  eligible,
		DailyRate:     v.DailyRate,
		CashValue:     v.RoundedValue,
		IsEligible:    settings.EncashmentEnabled && remaining.IsPositive(),
	}, nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// SubmitCashOutRequest records a PENDING encashment of the given number of
// days. Validation order: policy enabled, no duplicate, cap, balance.
func (s *Service) SubmitCashOutRequest(ctx context.Context, employeeID string, days decimal.Decimal, asOf engine.Date) (*CashOutRequest, error) {
	if days.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("cash-out days must be positive: %w", engine.ErrNotEligible)
	}

	emp, settings, lt, err := s.annualContext(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !settings.EncashmentEnabled {
		return nil, fmt.Errorf("encashment disabled for company %s: %w", emp.CompanyID, engine.ErrNotEligible)
	}

	quote, err := s.QuoteCashOut(ctx, employeeID, asOf)
	if err != nil {
		return nil, err
	}
	if !quote.IsEligible {
		return nil, fmt.Errorf("no cashable balance: %w", engine.ErrNotEligible)
	}
	if settings.MaxEncashmentDays != nil && days.GreaterThan(*settings.MaxEncashmentDays) {
		return nil, fmt.Errorf("requested %s days, maximum %s: %w",
			days, settings.MaxEncashmentDays, engine.ErrCapExceeded)
	}
	if days.GreaterThan(quote.RemainingDays) {
		return nil, &engine.InsufficientBalanceError{
			EmployeeID: employeeID,
			LeaveType:  lt.Code,
			Available:  quote.RemainingDays,
			Requested:  days,
		}
	}

	v := CashValue(days, emp.MonthlySalary, settings.SalaryDivisor, settings.EncashmentRounding)
	now := time.Now().UTC()
	req := CashOutRequest{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		LeaveTypeID:   lt.ID,
		FiscalYear:    quote.FiscalYear,
		DaysCashedOut: days,
		CashValue:     v.RoundedValue,
		MonthlySalary: emp.MonthlySalary,
		SalaryDivisor: settings.SalaryDivisor,
		Status:        CashOutPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Duplicate check and insert share one transaction so two simultaneous
	// submissions cannot both pass.
	err = s.store.WithTx(ctx, func(st Store) error {
		existing, err := st.PendingCashOut(ctx, employeeID, quote.FiscalYear)
		if err != nil && !engine.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("pending cash-out %s already exists: %w", existing.ID, engine.ErrDuplicateRequest)
		}
		return st.InsertCashOut(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "cash-out submitted",
		"request_id", req.ID, "employee_id", employeeID, "days", days.String(), "value", req.CashValue.String())
	return &req, nil
}

// ApproveCashOutRequest moves a PENDING request to APPROVED and burns the
// days into used_days atomically.
func (s *Service) ApproveCashOutRequest(ctx context.Context, requestID, approverID string) (*CashOutRequest, error) {
	var out CashOutRequest
	err := retryOnConflict(func() error {
		return s.store.WithTx(ctx, func(st Store) error {
			req, err := mustCashOut(ctx, st, requestID)
			if err != nil {
				return err
			}
			if req.Status != CashOutPending {
				return &engine.InvalidTransitionError{From: string(req.Status), Action: "approve"}
			}
			lt, err := st.LeaveType(ctx, req.LeaveTypeID)
			if err != nil {
				return err
			}
			if err := consumeDirect(ctx, st, req.EmployeeID, req.LeaveTypeID, req.FiscalYear, req.DaysCashedOut, lt.Code); err != nil {
				return err
			}
			req.Status = CashOutApproved
			req.ApproverID = approverID
			req.UpdatedAt = time.Now().UTC()
			if err := st.UpdateCashOut(ctx, *req); err != nil {
				return err
			}
			out = *req
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "cash-out approved",
		"request_id", out.ID, "approver_id", approverID, "days", out.DaysCashedOut.String())
	return &out, nil
}

// RejectCashOutRequest moves a PENDING request to REJECTED. No balance
// change: submission never reserved anything.
func (s *Service) RejectCashOutRequest(ctx context.Context, requestID, approverID string) (*CashOutRequest, error) {
	var out CashOutRequest
	err := s.store.WithTx(ctx, func(st Store) error {
		req, err := mustCashOut(ctx, st, requestID)
		if err != nil {
			return err
		}
		if req.Status != CashOutPending {
			return &engine.InvalidTransitionError{From: string(req.Status), Action: "reject"}
		}
		req.Status = CashOutRejected
		req.ApproverID = approverID
		req.UpdatedAt = time.Now().UTC()
		if err := st.UpdateCashOut(ctx, *req); err != nil {
			return err
		}
		out = *req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "cash-out rejected", "request_id", out.ID, "approver_id", approverID)
	return &out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// annualContext loads the employee, company settings, and the ANNUAL leave
// type in one place; every cash-out path needs all three.
func (s *Service) annualContext(ctx context.Context, employeeID string) (engine.EmployeeSnapshot, engine.LeaveSettings, engine.LeaveTypeConfig, error) {
	emp, err := s.store.Employee(ctx, employeeID)
	if err != nil {
		return engine.EmployeeSnapshot{}, engine.LeaveSettings{}, engine.LeaveTypeConfig{}, err
	}
	settings, err := s.store.Settings(ctx, emp.CompanyID)
	if err != nil {
		return engine.EmployeeSnapshot{}, engine.LeaveSettings{}, engine.LeaveTypeConfig{}, err
	}
	types, err := s.store.ListLeaveTypes(ctx, emp.CompanyID)
	if err != nil {
		return engine.EmployeeSnapshot{}, engine.LeaveSettings{}, engine.LeaveTypeConfig{}, err
	}
	for _, lt := range types {
		if lt.IsAnnual() {
			return emp, settings, lt, nil
		}
	}
	return engine.EmployeeSnapshot{}, engine.LeaveSettings{}, engine.LeaveTypeConfig{},
		fmt.Errorf("company %s has no annual leave type: %w", emp.CompanyID, engine.ErrConfigurationMissing)
}

func mustCashOut(ctx context.Context, st Store, id string) (*CashOutRequest, error) {
	req, err := st.CashOutRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("cash-out request %s: %w", id, engine.ErrNotFound)
	}
	return req, nil
}
