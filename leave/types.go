/*
Package leave orchestrates the calculation engine against a store.

PURPOSE:
  The engine package answers "how many days?" questions from pure inputs.
  This package owns the stateful side: the balance ledger rows, leave
  applications moving through multi-level approval, and cash-out requests,
  each mutated in a single atomic unit of work per state transition.

KEY CONCEPTS IN THIS FILE (types.go):
  - Balance: the ledger row keyed by (employee, leave type, fiscal year)
  - Application: a leave request with its approval state
  - CashOutRequest: converting remaining days into money

LEDGER SEMANTICS:
  remaining = max(0, entitlement - used - pending)

  remaining is ALWAYS derived, never stored independently. Reserve moves
  days into pending; commit moves them from pending into used (net zero on
  remaining); release gives pending days back.

SEE ALSO:
  - balance.go: allocate/reserve/commit/release
  - request.go: the approval state machine
  - cashout.go: valuation and the cash-out lifecycle
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// BALANCE - The ledger row
// =============================================================================

// Balance is the stored running total for one employee, leave type, and
// fiscal year. Rows are never physically deleted, only superseded by the
// next fiscal year's row.
type Balance struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string
	FiscalYear  int

	TotalEntitlement decimal.Decimal
	UsedDays         decimal.Decimal
	PendingDays      decimal.Decimal

	ExpiryDate engine.Date // zero = no expiry

	// Version guards concurrent reserve/commit/release against lost
	// updates. Every write re-reads the row and bumps the version.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Remaining is the spendable balance: entitlement minus used minus
// pending, floored at zero.
func (b Balance) Remaining() decimal.Decimal {
	r := b.TotalEntitlement.Sub(b.UsedDays).Sub(b.PendingDays)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// IsExpired reports whether the balance's carry-over window has lapsed.
// Expired balances are excluded from available totals by callers; the
// engine does not auto-purge.
func (b Balance) IsExpired(asOf engine.Date) bool {
	return !b.ExpiryDate.IsZero() && asOf.After(b.ExpiryDate)
}

// =============================================================================
// LEAVE APPLICATION
// =============================================================================

// ApplicationStatus is the approval state of a leave application.
type ApplicationStatus string

const (
	StatusPendingSupervisor ApplicationStatus = "PENDING_SUPERVISOR"
	StatusPendingHR         ApplicationStatus = "PENDING_HR"
	StatusPendingCEO        ApplicationStatus = "PENDING_CEO"
	StatusApproved          ApplicationStatus = "APPROVED"
	StatusRejected          ApplicationStatus = "REJECTED"
	StatusCancelled         ApplicationStatus = "CANCELLED"
)

// IsPending reports whether the application still holds reserved days.
func (s ApplicationStatus) IsPending() bool {
	switch s {
	case StatusPendingSupervisor, StatusPendingHR, StatusPendingCEO:
		return true
	default:
		return false
	}
}

// Action is an approval-chain operation on an application.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// Application is one leave request. RequestedDays is the working-day count
// over [StartDate, EndDate], which is exactly what the ledger reserves.
type Application struct {
	ID          string
	EmployeeID  string
	CompanyID   string
	LeaveTypeID string
	FiscalYear  int

	StartDate  engine.Date
	EndDate    engine.Date
	ReturnDate engine.Date

	RequestedDays decimal.Decimal
	Status        ApplicationStatus
	Reason        string

	ActedBy string // last approver/rejecter/canceller

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// CASH-OUT REQUEST
// =============================================================================

// CashOutStatus is the lifecycle state of an encashment request.
type CashOutStatus string

const (
	CashOutPending  CashOutStatus = "PENDING"
	CashOutApproved CashOutStatus = "APPROVED"
	CashOutRejected CashOutStatus = "REJECTED"
)

// CashOutRequest converts remaining leave days into money. The salary and
// divisor are snapshotted at submission so a later salary change does not
// reprice an in-flight request.
type CashOutRequest struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string
	FiscalYear  int

	DaysCashedOut decimal.Decimal
	CashValue     decimal.Decimal
	MonthlySalary decimal.Decimal
	SalaryDivisor decimal.Decimal

	Status     CashOutStatus
	ApproverID string

	CreatedAt time.Time
	UpdatedAt time.Time
}
