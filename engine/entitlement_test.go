package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/leave-engine/engine"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// =============================================================================
// TENURE ENTITLEMENT
// =============================================================================

func TestTenureEntitlement_BonusExample(t *testing.T) {
	// GIVEN: 16 base days, +1 day every 2 years, 5 years of service
	// THEN: 2 completed periods, 2 bonus days, entitlement 18
	got := engine.TenureEntitlement(dec("16"), dec("5"), 2, dec("1"), nil)

	assert.Equal(t, int64(2), got.CompletedPeriods)
	assert.True(t, got.BonusDays.Equal(dec("2")), "bonus %s", got.BonusDays)
	assert.True(t, got.Entitlement.Equal(dec("18")), "entitlement %s", got.Entitlement)
}

func TestTenureEntitlement_FractionalYearsFloorToPeriods(t *testing.T) {
	// 3.9 years with a 2-year period is still only one completed period.
	got := engine.TenureEntitlement(dec("16"), dec("3.9"), 2, dec("1"), nil)

	assert.Equal(t, int64(1), got.CompletedPeriods)
	assert.True(t, got.Entitlement.Equal(dec("17")), "entitlement %s", got.Entitlement)
}

func TestTenureEntitlement_CappedAtMax(t *testing.T) {
	// 20 years at +1/2y would be +10, but the cap holds it at 22.
	got := engine.TenureEntitlement(dec("16"), dec("20"), 2, dec("1"), decPtr("22"))

	assert.True(t, got.Entitlement.Equal(dec("22")), "entitlement %s", got.Entitlement)
	assert.True(t, got.BonusDays.Equal(dec("10")), "bonus is reported pre-cap")
}

func TestTenureEntitlement_NoGrowthRule(t *testing.T) {
	got := engine.TenureEntitlement(dec("14"), dec("9"), 0, decimal.Zero, nil)

	assert.True(t, got.Entitlement.Equal(dec("14")), "entitlement %s", got.Entitlement)
	assert.Equal(t, int64(0), got.CompletedPeriods)
}

// =============================================================================
// YEARS OF SERVICE - both definitions
// =============================================================================

func TestPreciseYearsOfService_ContinuousFraction(t *testing.T) {
	join := date(2020, time.January, 1)
	asOf := date(2025, time.January, 1)

	got := engine.PreciseYearsOfService(join, asOf)

	// 1827 elapsed days / 365.25 = 5.0020...
	assert.True(t, got.Round(2).Equal(dec("5")), "years %s", got)
}

func TestPreciseYearsOfService_BeforeJoinIsZero(t *testing.T) {
	got := engine.PreciseYearsOfService(date(2025, time.June, 1), date(2024, time.June, 1))
	assert.True(t, got.IsZero())
}

func TestCompletedYearsOfService_AnniversaryAdjustment(t *testing.T) {
	join := date(2020, time.June, 15)

	// Day before the 4th anniversary: still 3 completed years.
	assert.Equal(t, 3, engine.CompletedYearsOfService(join, date(2024, time.June, 14)))
	// On the anniversary: 4.
	assert.Equal(t, 4, engine.CompletedYearsOfService(join, date(2024, time.June, 15)))
}

func TestElapsedMonths(t *testing.T) {
	join := date(2024, time.March, 15)

	assert.Equal(t, 0, engine.ElapsedMonths(join, date(2024, time.April, 10)), "partial month does not count")
	assert.Equal(t, 1, engine.ElapsedMonths(join, date(2024, time.April, 15)))
	assert.Equal(t, 7, engine.ElapsedMonths(join, date(2024, time.October, 20)))
}
