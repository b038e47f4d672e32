package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// INITIALIZATION
// =============================================================================

func TestInitializeBalances_CreatesEligibleTypes(t *testing.T) {
	// GIVEN: a male staff employee and three leave types, one female-only
	// WHEN: initializing balances
	// THEN: annual and sick rows exist, maternity is skipped
	f := newFixture(t)

	res := f.initialize(t, "emp-staff")

	assert.Equal(t, 2024, res.FiscalYear)
	assert.Equal(t, 2, res.CreatedCount)

	annual := f.balance(t, "emp-staff", "lt-annual")
	// 4.42 years of service with +1 per 2 years: 16 + 2 = 18
	assert.True(t, annual.TotalEntitlement.Equal(dec("18")), "entitlement %s", annual.TotalEntitlement)

	sick := f.balance(t, "emp-staff", "lt-sick")
	assert.True(t, sick.TotalEntitlement.Equal(dec("10")))
}

func TestInitializeBalances_FemaleEmployeeGetsMaternity(t *testing.T) {
	f := newFixture(t)

	res := f.initialize(t, "emp-mgr")

	assert.Equal(t, 3, res.CreatedCount)
	maternity := f.balance(t, "emp-mgr", "lt-maternity")
	assert.True(t, maternity.TotalEntitlement.Equal(dec("60")))
}

func TestInitializeBalances_Idempotent(t *testing.T) {
	// Running initialization twice must not duplicate or reset rows.
	f := newFixture(t)
	f.initialize(t, "emp-staff")

	res := f.initialize(t, "emp-staff")

	assert.Equal(t, 0, res.CreatedCount)
	assert.Equal(t, 2024, res.FiscalYear)
}

func TestInitializeBalances_SecondRunPreservesLedgerState(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, "emp-staff")

	_, err := f.svc.SubmitLeaveApplication(context.Background(),
		"emp-staff", "lt-annual", date(2024, time.June, 10), date(2024, time.June, 12), "trip")
	require.NoError(t, err)

	f.initialize(t, "emp-staff")

	b := f.balance(t, "emp-staff", "lt-annual")
	assert.True(t, b.PendingDays.Equal(dec("3")), "reservation must survive re-initialization")
}

func TestInitializeBalances_FirstYearProratesNonAnnualTypes(t *testing.T) {
	// GIVEN: a hire four months in (joined 2024-02-01, today 2024-06-03)
	// THEN: sick leave is 10 * 4/12 = 3.33; annual accrues via the engine
	f := newFixture(t)
	require.NoError(t, f.store.SaveEmployee(context.Background(), sqlite.EmployeeRecord{
		EmployeeSnapshot: engine.EmployeeSnapshot{
			ID: "emp-new", CompanyID: "co-1",
			JoinDate:      date(2024, time.February, 1),
			Gender:        engine.GenderMale,
			JobLevel:      engine.LevelStaff,
			MonthlySalary: dec("6000"),
		},
		Name: "Tomas Ruiz",
	}))

	f.initialize(t, "emp-new")

	sick := f.balance(t, "emp-new", "lt-sick")
	assert.True(t, sick.TotalEntitlement.Equal(dec("3.33")), "got %s", sick.TotalEntitlement)

	annual := f.balance(t, "emp-new", "lt-annual")
	assert.True(t, annual.TotalEntitlement.Equal(dec("16")), "no tenure bonus in year one")
}

func TestInitializeBalances_UnknownEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.InitializeBalancesForEmployee(context.Background(), "ghost", testToday)

	assert.ErrorIs(t, err, engine.ErrNotFound)
}

// =============================================================================
// REMAINING
// =============================================================================

func TestBalance_RemainingFlooredAtZero(t *testing.T) {
	b := leave.Balance{
		TotalEntitlement: dec("10"),
		UsedDays:         dec("8"),
		PendingDays:      dec("5"),
	}

	assert.True(t, b.Remaining().IsZero())
}

func TestBalance_RemainingDerived(t *testing.T) {
	b := leave.Balance{
		TotalEntitlement: dec("18"),
		UsedDays:         dec("4.5"),
		PendingDays:      dec("2"),
	}

	assert.True(t, b.Remaining().Equal(dec("11.5")))
}

func TestBalance_Expiry(t *testing.T) {
	b := leave.Balance{ExpiryDate: date(2025, time.March, 31)}

	assert.False(t, b.IsExpired(date(2025, time.March, 31)), "expiry day itself is still valid")
	assert.True(t, b.IsExpired(date(2025, time.April, 1)))
	assert.False(t, leave.Balance{}.IsExpired(date(2030, time.January, 1)), "zero expiry never lapses")
}

// =============================================================================
// ACCRUAL PASS-THROUGH
// =============================================================================

func TestComputeAccrual_UsesCompanyPolicy(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.ComputeAccrual(context.Background(), "emp-staff", "lt-annual", testToday)
	require.NoError(t, err)

	// Jan 1 .. Jun 3 of 2024 inclusive, leap divisor: 155 * (18/366)
	assert.Equal(t, 155, got.DaysInPeriod)
	assert.True(t, got.DailyRate.Equal(dec("0.0492")), "rate %s", got.DailyRate)
	assert.True(t, got.AccruedDays.Equal(dec("7.63")), "accrued %s", got.AccruedDays)
	assert.True(t, got.AccruedDays.LessThanOrEqual(got.AnnualEntitlement))
}

func TestComputeAccrual_CapInvariantAcrossYearEnd(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.ComputeAccrual(context.Background(), "emp-staff", "lt-annual",
		date(2024, time.December, 31))
	require.NoError(t, err)

	assert.True(t, got.AccruedDays.Equal(got.AnnualEntitlement),
		"full period accrues exactly the entitlement, got %s of %s", got.AccruedDays, got.AnnualEntitlement)
}
