package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SERVER
// =============================================================================

var testToday = engine.NewDate(2024, time.June, 3)

type testServer struct {
	router *chi.Mux
	store  *sqlite.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := leave.NewService(store, log,
		leave.WithClock(func() engine.Date { return testToday }))

	ts := &testServer{
		router: api.NewRouter(api.NewHandler(svc, store, log)),
		store:  store,
	}
	ts.seed(t)
	return ts
}

func (ts *testServer) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, ts.store.SaveSettings(ctx, engine.DefaultSettings("co-1")))
	require.NoError(t, ts.store.SaveLeaveType(ctx, "co-1", engine.LeaveTypeConfig{
		ID: "lt-annual", Code: "ANNUAL", Name: "Annual Leave",
		DefaultAllowanceDays: dec("16"),
		IncrementDays:        dec("1"),
		IncrementPeriodYears: 2,
		ApplicableGender:     engine.GenderAll,
	}))
	require.NoError(t, ts.store.SaveEmployee(ctx, sqlite.EmployeeRecord{
		EmployeeSnapshot: engine.EmployeeSnapshot{
			ID: "emp-1", CompanyID: "co-1",
			JoinDate:      engine.NewDate(2020, time.January, 1),
			Gender:        engine.GenderMale,
			JobLevel:      engine.LevelStaff,
			MonthlySalary: dec("9000"),
		},
		Name: "Dev Raval",
	}))
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(out), "body: %s", w.Body.String())
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// =============================================================================
// EMPLOYEES AND CONFIGURATION
// =============================================================================

func TestAPI_CreateAndGetEmployee(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/employees", map[string]any{
		"id": "emp-2", "company_id": "co-1", "name": "Lena Fischer",
		"gender": "female", "job_level": "Manager",
		"join_date": "2018-03-15", "monthly_salary": "15000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/employees/emp-2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got api.EmployeeDTO
	decodeInto(t, w, &got)
	assert.Equal(t, "Manager", got.JobLevel)
	assert.Equal(t, "Female", got.Gender, "gender is normalized on write")
	assert.Equal(t, "2018-03-15", got.JoinDate)
}

func TestAPI_UnknownEmployeeIs404(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/employees/ghost", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_SettingsRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/api/companies/co-1/settings", map[string]any{
		"fiscal_year_start_month": 4,
		"accrual_basis":           "ANNIVERSARY",
		"accrual_divisor":         365,
		"saturday_half_day":       true,
		"sunday_off":              true,
		"encashment_enabled":      true,
		"salary_divisor":          "30",
		"encashment_rounding":     "FLOOR",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/companies/co-1/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got api.SettingsDTO
	decodeInto(t, w, &got)
	assert.Equal(t, 4, got.FiscalYearStartMonth)
	assert.Equal(t, "ANNIVERSARY", got.AccrualBasis)
	assert.Equal(t, "FLOOR", got.EncashmentRounding)
}

func TestAPI_SettingsValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/api/companies/co-1/settings", map[string]any{
		"fiscal_year_start_month": 13,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_MissingCompanySettingsIs404(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/companies/co-9/settings", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_HolidayCreateAndList(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/holidays", map[string]any{
		"company_id": "co-1", "date": "2024-12-25", "name": "Christmas", "recurring": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/holidays?company_id=co-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []api.HolidayDTO
	decodeInto(t, w, &got)
	require.Len(t, got, 1)
	assert.True(t, got[0].Recurring)
}

// =============================================================================
// ACCRUAL AND BALANCES
// =============================================================================

func TestAPI_GetAccrual(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/employees/emp-1/accrual?type=lt-annual&as_of=2024-06-03", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got api.AccrualDTO
	decodeInto(t, w, &got)
	assert.Equal(t, "2024-01-01", got.PeriodStart)
	assert.Equal(t, 155, got.DaysInPeriod)
	assert.True(t, got.AccruedDays.Equal(dec("7.63")), "accrued %s", got.AccruedDays)
	assert.True(t, got.AnnualEntitlement.Equal(dec("18")))
}

func TestAPI_GetAccrual_RequiresType(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/employees/emp-1/accrual?as_of=2024-06-03", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_InitializeBalances_Idempotent(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/employees/emp-1/balances/initialize?as_of=2024-06-03", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var first api.InitializeBalancesResponse
	decodeInto(t, w, &first)
	assert.Equal(t, 2024, first.FiscalYear)
	assert.Equal(t, 1, first.CreatedCount)

	w = ts.do(t, http.MethodPost, "/api/employees/emp-1/balances/initialize?as_of=2024-06-03", nil)
	var second api.InitializeBalancesResponse
	decodeInto(t, w, &second)
	assert.Equal(t, 0, second.CreatedCount)
}

func TestAPI_ListBalances(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/employees/emp-1/balances/initialize?as_of=2024-06-03", nil)

	w := ts.do(t, http.MethodGet, "/api/employees/emp-1/balances", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []api.BalanceDTO
	decodeInto(t, w, &got)
	require.Len(t, got, 1)
	assert.True(t, got[0].TotalEntitlement.Equal(dec("18")))
	assert.True(t, got[0].RemainingDays.Equal(dec("18")))
}

// =============================================================================
// APPLICATION WORKFLOW
// =============================================================================

func (ts *testServer) initAndSubmit(t *testing.T) api.ApplicationDTO {
	t.Helper()
	ts.do(t, http.MethodPost, "/api/employees/emp-1/balances/initialize?as_of=2024-06-03", nil)

	w := ts.do(t, http.MethodPost, "/api/employees/emp-1/applications", map[string]any{
		"leave_type_id": "lt-annual",
		"start_date":    "2024-06-10",
		"end_date":      "2024-06-14",
		"reason":        "family visit",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var app api.ApplicationDTO
	decodeInto(t, w, &app)
	return app
}

func TestAPI_SubmitApplication(t *testing.T) {
	ts := newTestServer(t)

	app := ts.initAndSubmit(t)

	assert.Equal(t, "PENDING_SUPERVISOR", app.Status)
	assert.True(t, app.RequestedDays.Equal(dec("5")))
	assert.Equal(t, "2024-06-15", app.ReturnDate)
}

func TestAPI_SubmitApplication_PastDatesAre400(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/employees/emp-1/balances/initialize?as_of=2024-06-03", nil)

	w := ts.do(t, http.MethodPost, "/api/employees/emp-1/applications", map[string]any{
		"leave_type_id": "lt-annual",
		"start_date":    "2024-05-01",
		"end_date":      "2024-05-03",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_SubmitApplication_OverlapIs409(t *testing.T) {
	ts := newTestServer(t)
	ts.initAndSubmit(t)

	w := ts.do(t, http.MethodPost, "/api/employees/emp-1/applications", map[string]any{
		"leave_type_id": "lt-annual",
		"start_date":    "2024-06-14",
		"end_date":      "2024-06-18",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAPI_SubmitApplication_InsufficientBalanceIs422(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/employees/emp-1/balances/initialize?as_of=2024-06-03", nil)

	// July 2024 holds 25 working days against an entitlement of 18.
	w := ts.do(t, http.MethodPost, "/api/employees/emp-1/applications", map[string]any{
		"leave_type_id": "lt-annual",
		"start_date":    "2024-07-01",
		"end_date":      "2024-07-31",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPI_TransitionApplication_FullChain(t *testing.T) {
	ts := newTestServer(t)
	app := ts.initAndSubmit(t)

	w := ts.do(t, http.MethodPost, "/api/applications/"+app.ID+"/transition", map[string]any{
		"action": "approve", "actor_id": "sup-1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got api.ApplicationDTO
	decodeInto(t, w, &got)
	assert.Equal(t, "PENDING_HR", got.Status)

	w = ts.do(t, http.MethodPost, "/api/applications/"+app.ID+"/transition", map[string]any{
		"action": "approve", "actor_id": "hr-1",
	})
	decodeInto(t, w, &got)
	assert.Equal(t, "APPROVED", got.Status, "staff level skips the CEO stage")
}

func TestAPI_TransitionApplication_BadActionIs400(t *testing.T) {
	ts := newTestServer(t)
	app := ts.initAndSubmit(t)

	w := ts.do(t, http.MethodPost, "/api/applications/"+app.ID+"/transition", map[string]any{
		"action": "escalate", "actor_id": "sup-1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_TransitionApplication_TerminalIs409(t *testing.T) {
	ts := newTestServer(t)
	app := ts.initAndSubmit(t)

	ts.do(t, http.MethodPost, "/api/applications/"+app.ID+"/transition", map[string]any{
		"action": "reject", "actor_id": "sup-1",
	})
	w := ts.do(t, http.MethodPost, "/api/applications/"+app.ID+"/transition", map[string]any{
		"action": "approve", "actor_id": "sup-1",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

// =============================================================================
// CASH-OUT
// =============================================================================

func TestAPI_CashOutQuote(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/employees/emp-1/balances/initialize?as_of=2024-06-03", nil)

	w := ts.do(t, http.MethodGet, "/api/employees/emp-1/cashout/quote?as_of=2024-06-03", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got api.CashOutQuoteDTO
	decodeInto(t, w, &got)
	assert.True(t, got.IsEligible)
	assert.True(t, got.RemainingDays.Equal(dec("7.63")), "remaining %s", got.RemainingDays)
	assert.True(t, got.DailyRate.Equal(dec("300")))
}

func TestAPI_CashOutLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/employees/emp-1/balances/initialize?as_of=2024-06-03", nil)

	w := ts.do(t, http.MethodPost, "/api/employees/emp-1/cashout?as_of=2024-06-03", map[string]any{
		"days": "5",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var req api.CashOutDTO
	decodeInto(t, w, &req)
	assert.Equal(t, "PENDING", req.Status)
	assert.True(t, req.CashValue.Equal(dec("1500")))

	// Second pending request conflicts.
	w = ts.do(t, http.MethodPost, "/api/employees/emp-1/cashout?as_of=2024-06-03", map[string]any{
		"days": "1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/api/cashout/"+req.ID+"/approve", map[string]any{
		"approver_id": "hr-1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var approved api.CashOutDTO
	decodeInto(t, w, &approved)
	assert.Equal(t, "APPROVED", approved.Status)

	// Approving a resolved request conflicts.
	w = ts.do(t, http.MethodPost, "/api/cashout/"+req.ID+"/approve", map[string]any{
		"approver_id": "hr-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAPI_CashOutOverCapIs400(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/employees/emp-1/balances/initialize?as_of=2024-06-03", nil)

	maxDays := dec("3")
	settings := engine.DefaultSettings("co-1")
	settings.MaxEncashmentDays = &maxDays
	require.NoError(t, ts.store.SaveSettings(context.Background(), settings))

	w := ts.do(t, http.MethodPost, "/api/employees/emp-1/cashout?as_of=2024-06-03", map[string]any{
		"days": "5",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
