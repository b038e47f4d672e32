/*
request.go - Leave applications and the approval chain

PURPOSE:
  Validates and submits leave applications, reserving the working days up
  front, and drives them through the multi-level approval state machine.

STATE MACHINE:
  PENDING_SUPERVISOR --approve--> PENDING_HR --approve--> (PENDING_CEO -->) APPROVED
  any pending        --reject---> REJECTED   (reservation released)
  any pending        --cancel---> CANCELLED  (owner only, reservation released)

  The CEO step exists only for management levels; everyone else is APPROVED
  straight after HR. Terminal states accept no further actions.

RESERVATION:
  Submission reserves CountWorkingDays(start, end) into pending_days in the
  same transaction that inserts the application row. Approval commits the
  reservation into used_days; rejection and cancellation release it.
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// STATE MACHINE - pure transition function
// =============================================================================

// NextStatus resolves one approval-chain action. The job level decides
// whether HR approval hands off to the CEO or finishes the chain.
func NextStatus(current ApplicationStatus, action Action, level engine.JobLevel) (ApplicationStatus, error) {
	if !current.IsPending() {
		return "", &engine.InvalidTransitionError{From: string(current), Action: string(action)}
	}

	switch action {
	case ActionReject:
		return StatusRejected, nil
	case ActionCancel:
		return StatusCancelled, nil
	case ActionApprove:
		switch current {
		case StatusPendingSupervisor:
			return StatusPendingHR, nil
		case StatusPendingHR:
			if level.RequiresCEOApproval() {
				return StatusPendingCEO, nil
			}
			return StatusApproved, nil
		case StatusPendingCEO:
			return StatusApproved, nil
		}
	}
	return "", &engine.InvalidTransitionError{From: string(current), Action: string(action)}
}

// =============================================================================
// SUBMISSION
// =============================================================================

// SubmitLeaveApplication validates a leave request, reserves its working
// days, and records it at the first approval stage.
//
// Validation order: dates, leave-type eligibility, overlap with the
// employee's other active requests, balance. The first failure wins;
// nothing is written until all checks pass.
func (s *Service) SubmitLeaveApplication(ctx context.Context, employeeID, leaveTypeID string, start, end engine.Date, reason string) (*Application, error) {
	today := s.today()
	if start.Before(today) {
		return nil, fmt.Errorf("start %s is in the past: %w", start, engine.ErrInvalidDateRange)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end %s before start %s: %w", end, start, engine.ErrInvalidDateRange)
	}

	emp, err := s.store.Employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.Settings(ctx, emp.CompanyID)
	if err != nil {
		return nil, err
	}
	lt, err := s.store.LeaveType(ctx, leaveTypeID)
	if err != nil {
		return nil, err
	}
	if !lt.EligibleFor(emp.Gender) {
		return nil, fmt.Errorf("leave type %s not open to employee %s: %w", lt.Code, employeeID, engine.ErrNotEligible)
	}

	active, err := s.store.ActiveApplications(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	for _, a := range active {
		if engine.RangesOverlap(start, end, a.StartDate, a.EndDate) {
			return nil, fmt.Errorf("overlaps application %s (%s..%s): %w",
				a.ID, a.StartDate, a.EndDate, engine.ErrDuplicateRequest)
		}
	}

	holidays, err := s.store.Holidays(ctx, emp.CompanyID)
	if err != nil {
		return nil, err
	}
	cal := engine.NewCalendar(settings, holidays)
	requested := cal.CountWorkingDays(start, end)
	if requested.IsZero() {
		return nil, fmt.Errorf("range %s..%s contains no working days: %w", start, end, engine.ErrInvalidDateRange)
	}

	periodStart := engine.ResolvePeriodStart(settings.Basis, settings.FiscalYearStartMonth, emp.JoinDate, start)
	now := time.Now().UTC()
	app := Application{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		CompanyID:     emp.CompanyID,
		LeaveTypeID:   leaveTypeID,
		FiscalYear:    engine.FiscalYear(periodStart),
		StartDate:     start,
		EndDate:       end,
		ReturnDate:    cal.NextWorkingDay(end),
		RequestedDays: requested,
		Status:        StatusPendingSupervisor,
		Reason:        reason,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = retryOnConflict(func() error {
		return s.store.WithTx(ctx, func(st Store) error {
			if err := reserveDays(ctx, st, employeeID, leaveTypeID, app.FiscalYear, requested, lt.Code); err != nil {
				return err
			}
			return st.InsertApplication(ctx, app)
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "leave application submitted",
		"application_id", app.ID, "employee_id", employeeID,
		"leave_type", lt.Code, "days", requested.String())
	return &app, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// TransitionApplication applies one approval-chain action on behalf of an
// actor. Cancellation is restricted to the application's owner; the ledger
// side effect (commit or release) lands in the same transaction as the
// status change.
func (s *Service) TransitionApplication(ctx context.Context, applicationID string, action Action, actorID string) (*Application, error) {
	var out Application
	err := retryOnConflict(func() error {
		return s.store.WithTx(ctx, func(st Store) error {
			app, err := mustApplication(ctx, st, applicationID)
			if err != nil {
				return err
			}
			if action == ActionCancel && app.EmployeeID != actorID {
				return &engine.InvalidTransitionError{From: string(app.Status), Action: "cancel by non-owner"}
			}

			emp, err := st.Employee(ctx, app.EmployeeID)
			if err != nil {
				return err
			}
			next, err := NextStatus(app.Status, action, emp.JobLevel)
			if err != nil {
				return err
			}

			switch next {
			case StatusApproved:
				err = commitDays(ctx, st, app.EmployeeID, app.LeaveTypeID, app.FiscalYear, app.RequestedDays)
			case StatusRejected, StatusCancelled:
				err = releaseDays(ctx, st, app.EmployeeID, app.LeaveTypeID, app.FiscalYear, app.RequestedDays)
			}
			if err != nil {
				return err
			}

			app.Status = next
			app.ActedBy = actorID
			app.UpdatedAt = time.Now().UTC()
			if err := st.UpdateApplication(ctx, *app); err != nil {
				return err
			}
			out = *app
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "leave application transitioned",
		"application_id", out.ID, "action", string(action), "status", string(out.Status), "actor_id", actorID)
	return &out, nil
}

func mustApplication(ctx context.Context, st Store, id string) (*Application, error) {
	app, err := st.Application(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("application %s: %w", id, engine.ErrNotFound)
	}
	return app, nil
}
