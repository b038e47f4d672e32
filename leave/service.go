/*
service.go - The orchestration facade

PURPOSE:
  Service is the single entry point the API layer talks to. It owns the
  store and logger, injects "today" so tests can pin the clock, and spreads
  its operations across balance.go, request.go, and cashout.go.
*/
package leave

import (
	"context"
	"log/slog"
	"time"

	"github.com/warp/leave-engine/engine"
)

// Service coordinates the calculation engine and the store.
type Service struct {
	store Store
	log   *slog.Logger
	today func() engine.Date
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the today source. Tests pin it to a fixed date.
func WithClock(today func() engine.Date) Option {
	return func(s *Service) { s.today = today }
}

func NewService(store Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   log,
		today: func() engine.Date { return engine.DateOf(time.Now()) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ComputeAccrual runs the accrual engine for one employee and leave type
// as of a date. Pure read: nothing is written.
func (s *Service) ComputeAccrual(ctx context.Context, employeeID, leaveTypeID string, asOf engine.Date) (engine.AccrualResult, error) {
	emp, err := s.store.Employee(ctx, employeeID)
	if err != nil {
		return engine.AccrualResult{}, err
	}
	settings, err := s.store.Settings(ctx, emp.CompanyID)
	if err != nil {
		return engine.AccrualResult{}, err
	}
	lt, err := s.store.LeaveType(ctx, leaveTypeID)
	if err != nil {
		return engine.AccrualResult{}, err
	}
	return engine.AccruedBalance(accrualInput(lt, emp, settings, asOf)), nil
}

// Balances lists the employee's ledger rows across leave types and years.
func (s *Service) Balances(ctx context.Context, employeeID string) ([]Balance, error) {
	return s.store.ListBalances(ctx, employeeID)
}

// GetApplication fetches one application by id.
func (s *Service) GetApplication(ctx context.Context, id string) (*Application, error) {
	return mustApplication(ctx, s.store, id)
}
