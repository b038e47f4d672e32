package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/leave-engine/engine"
)

// =============================================================================
// CALENDAR_YEAR BASIS
// =============================================================================

func TestResolvePeriodStart_CalendarYear_AfterFiscalMonth(t *testing.T) {
	// Fiscal year starts April; a June reference is inside the current year.
	got := engine.ResolvePeriodStart(engine.BasisCalendarYear, time.April,
		date(2020, time.January, 15), date(2024, time.June, 10))

	assert.Equal(t, date(2024, time.April, 1), got)
}

func TestResolvePeriodStart_CalendarYear_BeforeFiscalMonth(t *testing.T) {
	// A February reference precedes the April fiscal start, so the period
	// began in the previous calendar year.
	got := engine.ResolvePeriodStart(engine.BasisCalendarYear, time.April,
		date(2020, time.January, 15), date(2024, time.February, 10))

	assert.Equal(t, date(2023, time.April, 1), got)
}

func TestResolvePeriodStart_CalendarYear_OnFiscalStartDay(t *testing.T) {
	got := engine.ResolvePeriodStart(engine.BasisCalendarYear, time.April,
		date(2020, time.January, 15), date(2024, time.April, 1))

	assert.Equal(t, date(2024, time.April, 1), got)
}

// =============================================================================
// ANNIVERSARY BASIS
// =============================================================================

func TestResolvePeriodStart_Anniversary_AfterAnniversary(t *testing.T) {
	got := engine.ResolvePeriodStart(engine.BasisAnniversary, time.January,
		date(2020, time.March, 15), date(2024, time.June, 10))

	assert.Equal(t, date(2024, time.March, 15), got)
}

func TestResolvePeriodStart_Anniversary_BeforeAnniversary(t *testing.T) {
	// Reference in February precedes the March 15 anniversary, so the
	// running period started the previous year.
	got := engine.ResolvePeriodStart(engine.BasisAnniversary, time.January,
		date(2020, time.March, 15), date(2024, time.February, 1))

	assert.Equal(t, date(2023, time.March, 15), got)
}

func TestResolvePeriodStart_Anniversary_Feb29SnapsInNonLeapYear(t *testing.T) {
	// GIVEN: an employee hired on Feb 29
	// WHEN: resolving the period in a non-leap year
	// THEN: the anniversary snaps to the last day of February
	got := engine.ResolvePeriodStart(engine.BasisAnniversary, time.January,
		date(2020, time.February, 29), date(2023, time.June, 1))

	assert.Equal(t, date(2023, time.February, 28), got)
}

func TestResolvePeriodStart_Anniversary_Feb29KeptInLeapYear(t *testing.T) {
	got := engine.ResolvePeriodStart(engine.BasisAnniversary, time.January,
		date(2020, time.February, 29), date(2024, time.June, 1))

	assert.Equal(t, date(2024, time.February, 29), got)
}

// =============================================================================
// DERIVED PERIOD VALUES
// =============================================================================

func TestAccrualStart_NeverBeforeJoinDate(t *testing.T) {
	// An employee who joined mid-period starts accruing at their join date.
	periodStart := date(2024, time.January, 1)
	join := date(2024, time.May, 20)

	assert.Equal(t, join, engine.AccrualStart(periodStart, join))
	assert.Equal(t, periodStart, engine.AccrualStart(periodStart, date(2020, time.March, 1)))
}

func TestPeriodEnd(t *testing.T) {
	assert.Equal(t, date(2025, time.March, 31), engine.PeriodEnd(date(2024, time.April, 1)))
	assert.Equal(t, date(2024, time.December, 31), engine.PeriodEnd(date(2024, time.January, 1)))
}

func TestExpiryDate(t *testing.T) {
	// Three carry-over months after a Jan-Dec period ends.
	got := engine.ExpiryDate(date(2024, time.January, 1), 3)
	assert.Equal(t, date(2025, time.March, 31), got)

	assert.True(t, engine.ExpiryDate(date(2024, time.January, 1), 0).IsZero(), "zero months means no expiry")
}
