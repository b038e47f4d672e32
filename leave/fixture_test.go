/*
fixture_test.go - Shared harness for the leave package tests

Every test runs against a real in-memory SQLite store with the service
clock pinned to Monday 2024-06-03, so working-day math and fiscal years
are stable.
*/
package leave_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

var testToday = engine.NewDate(2024, time.June, 3)

type fixture struct {
	store *sqlite.Store
	svc   *leave.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := leave.NewService(store,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		leave.WithClock(func() engine.Date { return testToday }))

	f := &fixture{store: store, svc: svc}
	f.seed(t)
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.store.SaveSettings(ctx, engine.DefaultSettings("co-1")))

	for _, lt := range []engine.LeaveTypeConfig{
		{
			ID: "lt-annual", Code: "ANNUAL", Name: "Annual Leave",
			DefaultAllowanceDays: dec("16"),
			IncrementDays:        dec("1"),
			IncrementPeriodYears: 2,
			ApplicableGender:     engine.GenderAll,
		},
		{
			ID: "lt-sick", Code: "SICK", Name: "Sick Leave",
			DefaultAllowanceDays: dec("10"),
			IncrementDays:        decimal.Zero,
			ApplicableGender:     engine.GenderAll,
		},
		{
			ID: "lt-maternity", Code: "MATERNITY", Name: "Maternity Leave",
			DefaultAllowanceDays: dec("60"),
			IncrementDays:        decimal.Zero,
			ApplicableGender:     engine.GenderFemale,
		},
	} {
		require.NoError(t, f.store.SaveLeaveType(ctx, "co-1", lt))
	}

	for _, emp := range []sqlite.EmployeeRecord{
		{
			EmployeeSnapshot: engine.EmployeeSnapshot{
				ID: "emp-staff", CompanyID: "co-1",
				JoinDate:      engine.NewDate(2020, time.January, 1),
				Gender:        engine.GenderMale,
				JobLevel:      engine.LevelStaff,
				MonthlySalary: dec("9000"),
			},
			Name: "Dev Raval",
		},
		{
			EmployeeSnapshot: engine.EmployeeSnapshot{
				ID: "emp-mgr", CompanyID: "co-1",
				JoinDate:      engine.NewDate(2018, time.March, 15),
				Gender:        engine.GenderFemale,
				JobLevel:      engine.LevelManager,
				MonthlySalary: dec("15000"),
			},
			Name: "Lena Fischer",
		},
	} {
		require.NoError(t, f.store.SaveEmployee(ctx, emp))
	}
}

// initialize seeds the employee's balance rows for the pinned fiscal year.
func (f *fixture) initialize(t *testing.T, employeeID string) leave.InitResult {
	t.Helper()
	res, err := f.svc.InitializeBalancesForEmployee(context.Background(), employeeID, testToday)
	require.NoError(t, err)
	return res
}

func (f *fixture) balance(t *testing.T, employeeID, leaveTypeID string) leave.Balance {
	t.Helper()
	b, err := f.store.Balance(context.Background(), employeeID, leaveTypeID, 2024)
	require.NoError(t, err)
	require.NotNil(t, b)
	return *b
}

// employeeInCompany builds a minimal employee row for cross-company cases.
func employeeInCompany(id, companyID string) sqlite.EmployeeRecord {
	return sqlite.EmployeeRecord{
		EmployeeSnapshot: engine.EmployeeSnapshot{
			ID: id, CompanyID: companyID,
			JoinDate:      engine.NewDate(2020, time.January, 1),
			Gender:        engine.GenderMale,
			JobLevel:      engine.LevelStaff,
			MonthlySalary: dec("5000"),
		},
		Name: id,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) engine.Date {
	return engine.NewDate(y, m, d)
}
