/*
handlers.go - HTTP handlers for the leave platform

PURPOSE:
  Exposes the leave service via REST. Handles HTTP request/response, JSON
  serialization, and delegates all decisions to the leave package.

ENDPOINTS:
  Employees:
    GET    /api/employees                        List employees (by company)
    POST   /api/employees                        Create/update employee
    GET    /api/employees/{id}                   Employee details
    GET    /api/employees/{id}/accrual           Accrual computation
    GET    /api/employees/{id}/balances          Ledger rows
    POST   /api/employees/{id}/balances/initialize
    GET    /api/employees/{id}/cashout/quote     Encashment preview
    POST   /api/employees/{id}/cashout           Submit encashment
    POST   /api/employees/{id}/applications     Submit leave application

  Workflow:
    POST   /api/applications/{id}/transition     approve | reject | cancel
    GET    /api/applications/{id}
    POST   /api/cashout/{id}/approve
    POST   /api/cashout/{id}/reject

  Configuration:
    GET/PUT  /api/companies/{id}/settings
    GET/POST /api/leave-types
    GET/POST /api/holidays

ERROR MAPPING:
  400  invalid input, date-range and eligibility violations, cap overruns
  404  unknown entity or missing company configuration
  409  duplicates, illegal state transitions, optimistic-lock conflicts
  422  insufficient balance
  500  everything else, logged through slog

SECURITY NOTE:
  No authentication middleware. Actor identity arrives in request bodies
  and is trusted; an API gateway is expected in front.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// Handler holds the dependencies of the HTTP layer.
type Handler struct {
	Service *leave.Service
	Store   *sqlite.Store
	Log     *slog.Logger

	// today supplies the default as_of for requests that omit it.
	today func() engine.Date
}

// NewHandler wires the HTTP layer to the service and store.
func NewHandler(svc *leave.Service, store *sqlite.Store, log *slog.Logger) *Handler {
	return &Handler{
		Service: svc,
		Store:   store,
		Log:     log,
		today:   func() engine.Date { return engine.DateOf(time.Now()) },
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// ListEmployees returns the employees of a company.
// GET /api/employees?company_id=
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}

	employees, err := h.Store.ListEmployees(r.Context(), companyID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or updates an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	joinDate, err := parseDate(req.JoinDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid join_date format (use YYYY-MM-DD)", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	emp := sqlite.EmployeeRecord{
		EmployeeSnapshot: engine.EmployeeSnapshot{
			ID:            req.ID,
			CompanyID:     req.CompanyID,
			JoinDate:      joinDate,
			Gender:        engine.NormalizeGender(req.Gender),
			JobLevel:      engine.JobLevel(req.JobLevel),
			MonthlySalary: req.MonthlySalary,
		},
		Name:  req.Name,
		Email: req.Email,
	}
	if emp.JobLevel == "" {
		emp.JobLevel = engine.LevelStaff
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns a single employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.Employee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeDTO{
		ID:            emp.ID,
		CompanyID:     emp.CompanyID,
		Gender:        string(emp.Gender),
		JobLevel:      string(emp.JobLevel),
		JoinDate:      emp.JoinDate.String(),
		MonthlySalary: emp.MonthlySalary,
	})
}

// =============================================================================
// ACCRUAL AND BALANCES
// =============================================================================

// GetAccrual runs the accrual engine for one employee and leave type.
// GET /api/employees/{id}/accrual?type=&as_of=
func (h *Handler) GetAccrual(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	leaveTypeID := r.URL.Query().Get("type")
	if leaveTypeID == "" {
		writeError(w, http.StatusBadRequest, "type query parameter is required", nil)
		return
	}
	asOf, err := h.asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	result, err := h.Service.ComputeAccrual(r.Context(), employeeID, leaveTypeID, asOf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AccrualDTO{
		EmployeeID:        employeeID,
		LeaveTypeID:       leaveTypeID,
		AsOf:              asOf.String(),
		PeriodStart:       result.PeriodStart.String(),
		DaysInPeriod:      result.DaysInPeriod,
		DailyRate:         result.DailyRate,
		AccruedDays:       result.AccruedDays,
		AnnualEntitlement: result.AnnualEntitlement,
		TenureBonusDays:   result.TenureBonusDays,
		YearsOfService:    result.YearsOfService,
	})
}

// InitializeBalances seeds the fiscal year's ledger rows for an employee.
// POST /api/employees/{id}/balances/initialize?as_of=
func (h *Handler) InitializeBalances(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	res, err := h.Service.InitializeBalancesForEmployee(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, InitializeBalancesResponse{
		FiscalYear:   res.FiscalYear,
		CreatedCount: res.CreatedCount,
	})
}

// ListBalances returns the employee's ledger rows.
// GET /api/employees/{id}/balances
func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Service.Balances(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]BalanceDTO, len(balances))
	for i, b := range balances {
		dtos[i] = toBalanceDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// APPLICATIONS
// =============================================================================

// SubmitApplication files a leave application.
// POST /api/employees/{id}/applications
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	app, err := h.Service.SubmitLeaveApplication(r.Context(),
		chi.URLParam(r, "id"), req.LeaveTypeID, start, end, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplicationDTO(*app))
}

// GetApplication returns one application.
// GET /api/applications/{id}
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.Service.GetApplication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// TransitionApplication applies an approval-chain action.
// POST /api/applications/{id}/transition
func (h *Handler) TransitionApplication(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	action := leave.Action(req.Action)
	switch action {
	case leave.ActionApprove, leave.ActionReject, leave.ActionCancel:
	default:
		writeError(w, http.StatusBadRequest, "action must be approve, reject, or cancel", nil)
		return
	}
	if req.ActorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required", nil)
		return
	}

	app, err := h.Service.TransitionApplication(r.Context(), chi.URLParam(r, "id"), action, req.ActorID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// =============================================================================
// CASH-OUT
// =============================================================================

// GetCashOutQuote previews an encashment.
// GET /api/employees/{id}/cashout/quote?as_of=
func (h *Handler) GetCashOutQuote(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	q, err := h.Service.QuoteCashOut(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CashOutQuoteDTO{
		EmployeeID:    q.EmployeeID,
		FiscalYear:    q.FiscalYear,
		AccruedDays:   q.AccruedDays,
		UsedDays:      q.UsedDays,
		PendingDays:   q.PendingDays,
		RemainingDays: q.RemainingDays,
		EligibleDays:  q.EligibleDays,
		DailyRate:     q.DailyRate,
		CashValue:     q.CashValue,
		IsEligible:    q.IsEligible,
	})
}

// SubmitCashOut files an encashment request.
// POST /api/employees/{id}/cashout
func (h *Handler) SubmitCashOut(w http.ResponseWriter, r *http.Request) {
	var req SubmitCashOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	asOf, err := h.asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	out, err := h.Service.SubmitCashOutRequest(r.Context(), chi.URLParam(r, "id"), req.Days, asOf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCashOutDTO(*out))
}

// ApproveCashOut approves a pending encashment.
// POST /api/cashout/{id}/approve
func (h *Handler) ApproveCashOut(w http.ResponseWriter, r *http.Request) {
	h.decideCashOut(w, r, true)
}

// RejectCashOut rejects a pending encashment.
// POST /api/cashout/{id}/reject
func (h *Handler) RejectCashOut(w http.ResponseWriter, r *http.Request) {
	h.decideCashOut(w, r, false)
}

func (h *Handler) decideCashOut(w http.ResponseWriter, r *http.Request, approve bool) {
	var req CashOutDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "approver_id is required", nil)
		return
	}

	var (
		out *leave.CashOutRequest
		err error
	)
	if approve {
		out, err = h.Service.ApproveCashOutRequest(r.Context(), chi.URLParam(r, "id"), req.ApproverID)
	} else {
		out, err = h.Service.RejectCashOutRequest(r.Context(), chi.URLParam(r, "id"), req.ApproverID)
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCashOutDTO(*out))
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// GetSettings returns a company's leave policy.
// GET /api/companies/{id}/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.Settings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// PutSettings replaces a company's leave policy.
// PUT /api/companies/{id}/settings
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var dto SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	dto.CompanyID = chi.URLParam(r, "id")
	if dto.FiscalYearStartMonth < 1 || dto.FiscalYearStartMonth > 12 {
		writeError(w, http.StatusBadRequest, "fiscal_year_start_month must be 1-12", nil)
		return
	}

	if err := h.Store.SaveSettings(r.Context(), fromSettingsDTO(dto)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListLeaveTypes returns a company's leave categories.
// GET /api/leave-types?company_id=
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}

	types, err := h.Store.ListLeaveTypes(r.Context(), companyID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]LeaveTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = toLeaveTypeDTO(lt)
		dtos[i].CompanyID = companyID
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLeaveType creates or updates a leave category.
// POST /api/leave-types
func (h *Handler) CreateLeaveType(w http.ResponseWriter, r *http.Request) {
	var dto LeaveTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.CompanyID == "" || dto.Code == "" {
		writeError(w, http.StatusBadRequest, "company_id and code are required", nil)
		return
	}
	if dto.ID == "" {
		dto.ID = uuid.NewString()
	}
	if dto.ApplicableGender == "" {
		dto.ApplicableGender = string(engine.GenderAll)
	}

	if err := h.Store.SaveLeaveType(r.Context(), dto.CompanyID, fromLeaveTypeDTO(dto)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// ListHolidays returns a company's holidays.
// GET /api/holidays?company_id=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}

	holidays, err := h.Store.Holidays(r.Context(), companyID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var dto HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := parseDate(dto.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if dto.ID == "" {
		dto.ID = uuid.NewString()
	}

	holiday := engine.Holiday{
		ID:        dto.ID,
		CompanyID: dto.CompanyID,
		Date:      day,
		Name:      dto.Name,
		Recurring: dto.Recurring,
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDate(s string) (engine.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return engine.Date{}, err
	}
	return engine.DateOf(t), nil
}

// asOfParam reads the optional as_of query parameter, defaulting to today.
func (h *Handler) asOfParam(r *http.Request) (engine.Date, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.today(), nil
	}
	return parseDate(raw)
}

// writeServiceError maps domain error kinds onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidDateRange),
		errors.Is(err, engine.ErrCapExceeded),
		errors.Is(err, engine.ErrNotEligible):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, engine.ErrDuplicateRequest),
		errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, engine.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		h.Log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
