/*
store.go - Persistence interface consumed by the leave services

PURPOSE:
  Defines the contract between the domain logic and the database. The
  sqlite implementation lives in store/sqlite; tests use it with an
  in-memory database.

ATOMICITY:
  Every state transition (allocate, reserve+insert application, approve,
  reject, cancel, cash-out approval) runs inside WithTx. If the callback
  returns an error the whole unit of work rolls back; pending_days is
  never left incremented without a matching application row.

OPTIMISTIC LOCKING:
  UpdateBalance must compare-and-swap on the row's version column and
  return engine.ErrConcurrentModification when the row moved underneath
  the caller. This closes the read-check-write race between two
  simultaneous submissions against the same balance.
*/
package leave

import (
	"context"

	"github.com/warp/leave-engine/engine"
)

// Store is the persistence surface for leave data. Missing records are
// reported as engine.ErrNotFound (entities) or engine.ErrConfigurationMissing
// (settings, leave types).
type Store interface {
	// Configuration (read-only per computation)
	Settings(ctx context.Context, companyID string) (engine.LeaveSettings, error)
	LeaveType(ctx context.Context, id string) (engine.LeaveTypeConfig, error)
	ListLeaveTypes(ctx context.Context, companyID string) ([]engine.LeaveTypeConfig, error)
	Employee(ctx context.Context, id string) (engine.EmployeeSnapshot, error)
	Holidays(ctx context.Context, companyID string) ([]engine.Holiday, error)

	// Balance ledger
	Balance(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int) (*Balance, error)
	ListBalances(ctx context.Context, employeeID string) ([]Balance, error)
	InsertBalance(ctx context.Context, b Balance) error
	// UpdateBalance writes the row only if the stored version still equals
	// b.Version, then bumps it. engine.ErrConcurrentModification otherwise.
	UpdateBalance(ctx context.Context, b Balance) error

	// Applications
	Application(ctx context.Context, id string) (*Application, error)
	ActiveApplications(ctx context.Context, employeeID string) ([]Application, error)
	InsertApplication(ctx context.Context, a Application) error
	UpdateApplication(ctx context.Context, a Application) error

	// Cash-out requests
	CashOutRequest(ctx context.Context, id string) (*CashOutRequest, error)
	PendingCashOut(ctx context.Context, employeeID string, fiscalYear int) (*CashOutRequest, error)
	InsertCashOut(ctx context.Context, r CashOutRequest) error
	UpdateCashOut(ctx context.Context, r CashOutRequest) error

	// WithTx executes fn within one database transaction. fn receives a
	// Store bound to that transaction; returning an error rolls back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
