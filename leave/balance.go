/*
balance.go - Balance ledger operations

PURPOSE:
  Creates and mutates the per-(employee, leave type, fiscal year) ledger
  rows. Allocation computes the entitlement; reserve/commit/release move
  days between the entitlement, pending, and used buckets.

ENTITLEMENT RULES:
  ANNUAL-coded types run through the accrual engine: base days plus tenure
  bonus, capped. Every other type uses the flat rule: full base days once
  the employee has completed a year of service, otherwise prorated by
  elapsed months (base * months / 12).

CONCURRENCY:
  All mutations happen inside store.WithTx and finish with an optimistic
  UpdateBalance. Two concurrent reservations against the same row cannot
  both pass the remaining-days check: the second write fails its version
  compare and surfaces engine.ErrConcurrentModification.
*/
package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/engine"
)

var twelve = decimal.NewFromInt(12)

// InitResult reports what InitializeBalancesForEmployee did.
type InitResult struct {
	FiscalYear   int
	CreatedCount int
}

// InitializeBalancesForEmployee creates the current fiscal year's balance
// row for every leave type the employee is eligible for. Idempotent:
// existing rows are skipped, so a second call reports CreatedCount 0.
func (s *Service) InitializeBalancesForEmployee(ctx context.Context, employeeID string, asOf engine.Date) (InitResult, error) {
	emp, err := s.store.Employee(ctx, employeeID)
	if err != nil {
		return InitResult{}, err
	}
	settings, err := s.store.Settings(ctx, emp.CompanyID)
	if err != nil {
		return InitResult{}, err
	}
	types, err := s.store.ListLeaveTypes(ctx, emp.CompanyID)
	if err != nil {
		return InitResult{}, err
	}

	periodStart := engine.ResolvePeriodStart(settings.Basis, settings.FiscalYearStartMonth, emp.JoinDate, asOf)
	fiscalYear := engine.FiscalYear(periodStart)

	result := InitResult{FiscalYear: fiscalYear}
	err = s.store.WithTx(ctx, func(st Store) error {
		for _, lt := range types {
			if !lt.EligibleFor(emp.Gender) {
				continue
			}
			existing, err := st.Balance(ctx, employeeID, lt.ID, fiscalYear)
			if err != nil && !engine.IsNotFound(err) {
				return err
			}
			if existing != nil {
				continue
			}

			b := Balance{
				ID:               uuid.NewString(),
				EmployeeID:       employeeID,
				LeaveTypeID:      lt.ID,
				FiscalYear:       fiscalYear,
				TotalEntitlement: s.entitlementFor(lt, emp, settings, asOf),
				UsedDays:         decimal.Zero,
				PendingDays:      decimal.Zero,
				ExpiryDate:       engine.ExpiryDate(periodStart, lt.CarryOverExpiryMonths),
			}
			if err := st.InsertBalance(ctx, b); err != nil {
				return err
			}
			result.CreatedCount++
		}
		return nil
	})
	if err != nil {
		return InitResult{}, err
	}

	s.log.InfoContext(ctx, "balances initialized",
		"employee_id", employeeID, "fiscal_year", fiscalYear, "created", result.CreatedCount)
	return result, nil
}

// entitlementFor computes the annual entitlement for one leave type.
func (s *Service) entitlementFor(lt engine.LeaveTypeConfig, emp engine.EmployeeSnapshot, settings engine.LeaveSettings, asOf engine.Date) decimal.Decimal {
	if lt.IsAnnual() {
		return engine.AccruedBalance(accrualInput(lt, emp, settings, asOf)).AnnualEntitlement
	}

	// Flat rule for non-annual types: whole-year tenure measure by design
	// (see engine/entitlement.go).
	if engine.CompletedYearsOfService(emp.JoinDate, asOf) >= 1 {
		return lt.DefaultAllowanceDays
	}
	months := engine.ElapsedMonths(emp.JoinDate, asOf)
	if months <= 0 {
		return decimal.Zero
	}
	return lt.DefaultAllowanceDays.Mul(decimal.NewFromInt(int64(months))).Div(twelve).Round(2)
}

func accrualInput(lt engine.LeaveTypeConfig, emp engine.EmployeeSnapshot, settings engine.LeaveSettings, asOf engine.Date) engine.AccrualInput {
	return engine.AccrualInput{
		JoinDate:             emp.JoinDate,
		ReferenceDate:        asOf,
		BaseDays:             lt.DefaultAllowanceDays,
		IncrementPeriodYears: lt.IncrementPeriodYears,
		IncrementDays:        lt.IncrementDays,
		MaxCap:               lt.MaxAccrualCap,
		Basis:                settings.Basis,
		FiscalStartMonth:     int(settings.FiscalYearStartMonth),
		Divisor:              settings.AccrualDivisor,
	}
}

// =============================================================================
// RESERVE / COMMIT / RELEASE - run inside a store transaction
// =============================================================================

// reserveDays moves days into pending after the remaining-days check.
func reserveDays(ctx context.Context, st Store, employeeID, leaveTypeID string, fiscalYear int, days decimal.Decimal, leaveTypeCode string) error {
	b, err := mustBalance(ctx, st, employeeID, leaveTypeID, fiscalYear)
	if err != nil {
		return err
	}
	if days.GreaterThan(b.Remaining()) {
		return &engine.InsufficientBalanceError{
			EmployeeID: employeeID,
			LeaveType:  leaveTypeCode,
			Available:  b.Remaining(),
			Requested:  days,
		}
	}
	b.PendingDays = b.PendingDays.Add(days)
	return st.UpdateBalance(ctx, *b)
}

// commitDays converts a reservation into consumption. Net change to
// Remaining is zero; the days just stop being releasable.
func commitDays(ctx context.Context, st Store, employeeID, leaveTypeID string, fiscalYear int, days decimal.Decimal) error {
	b, err := mustBalance(ctx, st, employeeID, leaveTypeID, fiscalYear)
	if err != nil {
		return err
	}
	b.PendingDays = b.PendingDays.Sub(days)
	if b.PendingDays.IsNegative() {
		b.PendingDays = decimal.Zero
	}
	b.UsedDays = b.UsedDays.Add(days)
	return st.UpdateBalance(ctx, *b)
}

// releaseDays gives a reservation back on rejection or cancellation.
func releaseDays(ctx context.Context, st Store, employeeID, leaveTypeID string, fiscalYear int, days decimal.Decimal) error {
	b, err := mustBalance(ctx, st, employeeID, leaveTypeID, fiscalYear)
	if err != nil {
		return err
	}
	b.PendingDays = b.PendingDays.Sub(days)
	if b.PendingDays.IsNegative() {
		b.PendingDays = decimal.Zero
	}
	return st.UpdateBalance(ctx, *b)
}

// consumeDirect increments used_days without a prior reservation. Cash-out
// approval uses this: the request record itself is the hold.
func consumeDirect(ctx context.Context, st Store, employeeID, leaveTypeID string, fiscalYear int, days decimal.Decimal, leaveTypeCode string) error {
	b, err := mustBalance(ctx, st, employeeID, leaveTypeID, fiscalYear)
	if err != nil {
		return err
	}
	if days.GreaterThan(b.Remaining()) {
		return &engine.InsufficientBalanceError{
			EmployeeID: employeeID,
			LeaveType:  leaveTypeCode,
			Available:  b.Remaining(),
			Requested:  days,
		}
	}
	b.UsedDays = b.UsedDays.Add(days)
	return st.UpdateBalance(ctx, *b)
}

func mustBalance(ctx context.Context, st Store, employeeID, leaveTypeID string, fiscalYear int) (*Balance, error) {
	b, err := st.Balance(ctx, employeeID, leaveTypeID, fiscalYear)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("balance %s/%s/%d: %w", employeeID, leaveTypeID, fiscalYear, engine.ErrNotFound)
	}
	return b, nil
}

// retryOnConflict replays fn once when the optimistic version check loses a
// race. Callers treat a second conflict as an error.
func retryOnConflict(fn func() error) error {
	err := fn()
	if errors.Is(err, engine.ErrConcurrentModification) {
		return fn()
	}
	return err
}
