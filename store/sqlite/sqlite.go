/*
Package sqlite is the SQLite-backed implementation of leave.Store.

PURPOSE:
  Persists the leave configuration, balance ledger, applications, and
  cash-out requests. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  company_settings:   per-company leave policy (one row per company)
  leave_types:        leave categories and their entitlement rules
  employees:          employee snapshots the engine consumes
  public_holidays:    fixed and recurring holidays
  leave_balances:     the ledger, keyed (employee, leave type, fiscal year)
  leave_applications: requests moving through the approval chain
  cashout_requests:   encashments

CONSTRAINTS ENFORCED IN THE SCHEMA:
  - One balance row per (employee, leave type, fiscal year)
  - At most one PENDING cash-out per (employee, fiscal year), via a
    partial unique index; InsertCashOut maps the violation to
    engine.ErrDuplicateRequest
  - leave_balances.version backs the optimistic compare-and-swap in
    UpdateBalance

STORAGE CONVENTIONS:
  Dates are stored as "2006-01-02" TEXT, timestamps as RFC3339 TEXT, and
  decimals as their canonical string form. SQLite's type affinity makes
  TEXT the only representation that round-trips decimals exactly.

USAGE:
  store, err := sqlite.New("./data/leave.db")  // or ":memory:" in tests
  if err != nil { ... }
  defer store.Close()
  svc := leave.NewService(store, logger)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/leave"
)

const dateLayout = "2006-01-02"

// querier is satisfied by both *sql.DB and *sql.Tx so every query helper
// works inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements leave.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases alive across calls and
	// serializes writers, which is all SQLite supports anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS company_settings (
		company_id TEXT PRIMARY KEY,
		fiscal_year_start_month INTEGER NOT NULL,
		accrual_basis TEXT NOT NULL,
		accrual_divisor INTEGER NOT NULL,
		saturday_half_day BOOLEAN NOT NULL,
		sunday_off BOOLEAN NOT NULL,
		encashment_enabled BOOLEAN NOT NULL,
		salary_divisor TEXT NOT NULL,
		max_encashment_days TEXT,
		encashment_rounding TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		default_allowance_days TEXT NOT NULL,
		increment_days TEXT NOT NULL,
		increment_period_years INTEGER NOT NULL DEFAULT 0,
		max_accrual_cap TEXT,
		applicable_gender TEXT NOT NULL DEFAULT 'All',
		carryover_expiry_months INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_leave_types_company_code
		ON leave_types(company_id, code);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		gender TEXT NOT NULL DEFAULT 'All',
		job_level TEXT NOT NULL DEFAULT 'Staff',
		join_date TEXT NOT NULL,
		monthly_salary TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employees_company ON employees(company_id);

	CREATE TABLE IF NOT EXISTS public_holidays (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON public_holidays(company_id, date, name);
	CREATE INDEX IF NOT EXISTS idx_holidays_company_date
		ON public_holidays(company_id, date);

	CREATE TABLE IF NOT EXISTS leave_balances (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		fiscal_year INTEGER NOT NULL,
		total_entitlement TEXT NOT NULL,
		used_days TEXT NOT NULL,
		pending_days TEXT NOT NULL,
		expiry_date TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_balances_unique
		ON leave_balances(employee_id, leave_type_id, fiscal_year);

	CREATE TABLE IF NOT EXISTS leave_applications (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		company_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		fiscal_year INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		return_date TEXT NOT NULL,
		requested_days TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		acted_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_applications_employee_status
		ON leave_applications(employee_id, status);

	CREATE TABLE IF NOT EXISTS cashout_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		fiscal_year INTEGER NOT NULL,
		days_cashed_out TEXT NOT NULL,
		cash_value TEXT NOT NULL,
		monthly_salary TEXT NOT NULL,
		salary_divisor TEXT NOT NULL,
		status TEXT NOT NULL,
		approver_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	-- One in-flight encashment per employee per fiscal year.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_cashout_single_pending
		ON cashout_requests(employee_id, fiscal_year)
		WHERE status = 'PENDING';
	CREATE INDEX IF NOT EXISTS idx_cashout_employee
		ON cashout_requests(employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SaveSettings upserts the company's leave policy row.
func (s *Store) SaveSettings(ctx context.Context, cfg engine.LeaveSettings) error {
	query := `
		INSERT INTO company_settings (company_id, fiscal_year_start_month, accrual_basis,
			accrual_divisor, saturday_half_day, sunday_off, encashment_enabled,
			salary_divisor, max_encashment_days, encashment_rounding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id) DO UPDATE SET
			fiscal_year_start_month = excluded.fiscal_year_start_month,
			accrual_basis = excluded.accrual_basis,
			accrual_divisor = excluded.accrual_divisor,
			saturday_half_day = excluded.saturday_half_day,
			sunday_off = excluded.sunday_off,
			encashment_enabled = excluded.encashment_enabled,
			salary_divisor = excluded.salary_divisor,
			max_encashment_days = excluded.max_encashment_days,
			encashment_rounding = excluded.encashment_rounding,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		cfg.CompanyID, int(cfg.FiscalYearStartMonth), string(cfg.Basis),
		cfg.AccrualDivisor, cfg.SaturdayHalfDay, cfg.SundayOff, cfg.EncashmentEnabled,
		cfg.SalaryDivisor.String(), nullDecimal(cfg.MaxEncashmentDays), string(cfg.EncashmentRounding),
		now, now,
	)
	return err
}

func (s *Store) Settings(ctx context.Context, companyID string) (engine.LeaveSettings, error) {
	return getSettings(ctx, s.db, companyID)
}

func getSettings(ctx context.Context, q querier, companyID string) (engine.LeaveSettings, error) {
	var (
		cfg           engine.LeaveSettings
		month         int
		basis, round  string
		salaryDivisor string
		maxDays       sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT company_id, fiscal_year_start_month, accrual_basis, accrual_divisor,
			saturday_half_day, sunday_off, encashment_enabled,
			salary_divisor, max_encashment_days, encashment_rounding
		FROM company_settings WHERE company_id = ?`, companyID,
	).Scan(&cfg.CompanyID, &month, &basis, &cfg.AccrualDivisor,
		&cfg.SaturdayHalfDay, &cfg.SundayOff, &cfg.EncashmentEnabled,
		&salaryDivisor, &maxDays, &round)
	if err == sql.ErrNoRows {
		return cfg, fmt.Errorf("settings for company %s: %w", companyID, engine.ErrConfigurationMissing)
	}
	if err != nil {
		return cfg, err
	}

	cfg.FiscalYearStartMonth = time.Month(month)
	cfg.Basis = engine.AccrualBasis(basis)
	cfg.EncashmentRounding = engine.RoundingMode(round)
	cfg.SalaryDivisor = mustDecimal(salaryDivisor)
	cfg.MaxEncashmentDays = decimalPtr(maxDays)
	return cfg, nil
}

// SaveLeaveType upserts one leave category.
func (s *Store) SaveLeaveType(ctx context.Context, companyID string, lt engine.LeaveTypeConfig) error {
	query := `
		INSERT INTO leave_types (id, company_id, code, name, default_allowance_days,
			increment_days, increment_period_years, max_accrual_cap,
			applicable_gender, carryover_expiry_months, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			default_allowance_days = excluded.default_allowance_days,
			increment_days = excluded.increment_days,
			increment_period_years = excluded.increment_period_years,
			max_accrual_cap = excluded.max_accrual_cap,
			applicable_gender = excluded.applicable_gender,
			carryover_expiry_months = excluded.carryover_expiry_months
	`
	_, err := s.db.ExecContext(ctx, query,
		lt.ID, companyID, lt.Code, lt.Name, lt.DefaultAllowanceDays.String(),
		lt.IncrementDays.String(), lt.IncrementPeriodYears, nullDecimal(lt.MaxAccrualCap),
		string(lt.ApplicableGender), lt.CarryOverExpiryMonths,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

const leaveTypeColumns = `id, code, name, default_allowance_days, increment_days,
	increment_period_years, max_accrual_cap, applicable_gender, carryover_expiry_months`

func (s *Store) LeaveType(ctx context.Context, id string) (engine.LeaveTypeConfig, error) {
	return getLeaveType(ctx, s.db, id)
}

func getLeaveType(ctx context.Context, q querier, id string) (engine.LeaveTypeConfig, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+leaveTypeColumns+" FROM leave_types WHERE id = ?", id)
	lt, err := scanLeaveType(row.Scan)
	if err == sql.ErrNoRows {
		return lt, fmt.Errorf("leave type %s: %w", id, engine.ErrConfigurationMissing)
	}
	return lt, err
}

func (s *Store) ListLeaveTypes(ctx context.Context, companyID string) ([]engine.LeaveTypeConfig, error) {
	return listLeaveTypes(ctx, s.db, companyID)
}

func listLeaveTypes(ctx context.Context, q querier, companyID string) ([]engine.LeaveTypeConfig, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+leaveTypeColumns+" FROM leave_types WHERE company_id = ? ORDER BY code", companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []engine.LeaveTypeConfig
	for rows.Next() {
		lt, err := scanLeaveType(rows.Scan)
		if err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

func scanLeaveType(scan func(...any) error) (engine.LeaveTypeConfig, error) {
	var (
		lt                     engine.LeaveTypeConfig
		allowance, increment   string
		maxCap                 sql.NullString
		gender                 string
	)
	err := scan(&lt.ID, &lt.Code, &lt.Name, &allowance, &increment,
		&lt.IncrementPeriodYears, &maxCap, &gender, &lt.CarryOverExpiryMonths)
	if err != nil {
		return lt, err
	}
	lt.DefaultAllowanceDays = mustDecimal(allowance)
	lt.IncrementDays = mustDecimal(increment)
	lt.MaxAccrualCap = decimalPtr(maxCap)
	lt.ApplicableGender = engine.Gender(gender)
	return lt, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeRecord is the stored employee row: the engine snapshot plus the
// identity fields the engine never reads.
type EmployeeRecord struct {
	engine.EmployeeSnapshot
	Name  string
	Email string
}

// SaveEmployee upserts an employee row.
func (s *Store) SaveEmployee(ctx context.Context, emp EmployeeRecord) error {
	query := `
		INSERT INTO employees (id, company_id, name, email, gender, job_level,
			join_date, monthly_salary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			name = excluded.name,
			email = excluded.email,
			gender = excluded.gender,
			job_level = excluded.job_level,
			join_date = excluded.join_date,
			monthly_salary = excluded.monthly_salary
	`
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.CompanyID, emp.Name, emp.Email, string(emp.Gender), string(emp.JobLevel),
		emp.JoinDate.String(), emp.MonthlySalary.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) Employee(ctx context.Context, id string) (engine.EmployeeSnapshot, error) {
	return getEmployee(ctx, s.db, id)
}

func getEmployee(ctx context.Context, q querier, id string) (engine.EmployeeSnapshot, error) {
	var (
		emp              engine.EmployeeSnapshot
		gender, level    string
		joinDate, salary string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, company_id, gender, job_level, join_date, monthly_salary
		FROM employees WHERE id = ?`, id,
	).Scan(&emp.ID, &emp.CompanyID, &gender, &level, &joinDate, &salary)
	if err == sql.ErrNoRows {
		return emp, fmt.Errorf("employee %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return emp, err
	}
	emp.Gender = engine.Gender(gender)
	emp.JobLevel = engine.JobLevel(level)
	emp.JoinDate = parseDate(joinDate)
	emp.MonthlySalary = mustDecimal(salary)
	return emp, nil
}

// ListEmployees returns every employee of a company.
func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]EmployeeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, email, gender, job_level, join_date, monthly_salary
		FROM employees WHERE company_id = ? ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []EmployeeRecord
	for rows.Next() {
		var (
			emp              EmployeeRecord
			email            sql.NullString
			gender, level    string
			joinDate, salary string
		)
		if err := rows.Scan(&emp.ID, &emp.CompanyID, &emp.Name, &email,
			&gender, &level, &joinDate, &salary); err != nil {
			return nil, err
		}
		emp.Email = email.String
		emp.Gender = engine.Gender(gender)
		emp.JobLevel = engine.JobLevel(level)
		emp.JoinDate = parseDate(joinDate)
		emp.MonthlySalary = mustDecimal(salary)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHoliday upserts one holiday.
func (s *Store) SaveHoliday(ctx context.Context, h engine.Holiday) error {
	query := `
		INSERT INTO public_holidays (id, company_id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, date, name) DO UPDATE SET
			recurring = excluded.recurring
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.CompanyID, h.Date.String(), h.Name, h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) Holidays(ctx context.Context, companyID string) ([]engine.Holiday, error) {
	return listHolidays(ctx, s.db, companyID)
}

func listHolidays(ctx context.Context, q querier, companyID string) ([]engine.Holiday, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, company_id, date, name, recurring
		FROM public_holidays WHERE company_id = ? ORDER BY date`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []engine.Holiday
	for rows.Next() {
		var (
			h    engine.Holiday
			date string
		)
		if err := rows.Scan(&h.ID, &h.CompanyID, &date, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date = parseDate(date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// BALANCES
// =============================================================================

const balanceColumns = `id, employee_id, leave_type_id, fiscal_year, total_entitlement,
	used_days, pending_days, expiry_date, version, created_at, updated_at`

func (s *Store) Balance(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int) (*leave.Balance, error) {
	return getBalance(ctx, s.db, employeeID, leaveTypeID, fiscalYear)
}

func getBalance(ctx context.Context, q querier, employeeID, leaveTypeID string, fiscalYear int) (*leave.Balance, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+balanceColumns+` FROM leave_balances
		WHERE employee_id = ? AND leave_type_id = ? AND fiscal_year = ?`,
		employeeID, leaveTypeID, fiscalYear)
	b, err := scanBalance(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) ListBalances(ctx context.Context, employeeID string) ([]leave.Balance, error) {
	return listBalances(ctx, s.db, employeeID)
}

func listBalances(ctx context.Context, q querier, employeeID string) ([]leave.Balance, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+balanceColumns+` FROM leave_balances
		WHERE employee_id = ? ORDER BY fiscal_year DESC, leave_type_id`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []leave.Balance
	for rows.Next() {
		b, err := scanBalance(rows.Scan)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func scanBalance(scan func(...any) error) (leave.Balance, error) {
	var (
		b                         leave.Balance
		entitlement, used, pend   string
		expiry                    sql.NullString
		createdAt, updatedAt      string
	)
	err := scan(&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.FiscalYear,
		&entitlement, &used, &pend, &expiry, &b.Version, &createdAt, &updatedAt)
	if err != nil {
		return b, err
	}
	b.TotalEntitlement = mustDecimal(entitlement)
	b.UsedDays = mustDecimal(used)
	b.PendingDays = mustDecimal(pend)
	if expiry.Valid {
		b.ExpiryDate = parseDate(expiry.String)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return b, nil
}

func (s *Store) InsertBalance(ctx context.Context, b leave.Balance) error {
	return insertBalance(ctx, s.db, b)
}

func insertBalance(ctx context.Context, q querier, b leave.Balance) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_balances (`+balanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		b.ID, b.EmployeeID, b.LeaveTypeID, b.FiscalYear,
		b.TotalEntitlement.String(), b.UsedDays.String(), b.PendingDays.String(),
		nullDate(b.ExpiryDate), now, now,
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("balance %s/%s/%d exists: %w",
			b.EmployeeID, b.LeaveTypeID, b.FiscalYear, engine.ErrDuplicateRequest)
	}
	return err
}

func (s *Store) UpdateBalance(ctx context.Context, b leave.Balance) error {
	return updateBalance(ctx, s.db, b)
}

// updateBalance writes the row only when the stored version still matches
// b.Version. Callers always re-read the row inside the same transaction, so
// zero rows affected means a concurrent writer got there first.
func updateBalance(ctx context.Context, q querier, b leave.Balance) error {
	res, err := q.ExecContext(ctx, `
		UPDATE leave_balances SET
			total_entitlement = ?, used_days = ?, pending_days = ?,
			expiry_date = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		b.TotalEntitlement.String(), b.UsedDays.String(), b.PendingDays.String(),
		nullDate(b.ExpiryDate), time.Now().UTC().Format(time.RFC3339),
		b.ID, b.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("balance %s version %d: %w", b.ID, b.Version, engine.ErrConcurrentModification)
	}
	return nil
}

// =============================================================================
// APPLICATIONS
// =============================================================================

const applicationColumns = `id, employee_id, company_id, leave_type_id, fiscal_year,
	start_date, end_date, return_date, requested_days, status, reason, acted_by,
	created_at, updated_at`

func (s *Store) Application(ctx context.Context, id string) (*leave.Application, error) {
	return getApplication(ctx, s.db, id)
}

func getApplication(ctx context.Context, q querier, id string) (*leave.Application, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" FROM leave_applications WHERE id = ?", id)
	a, err := scanApplication(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ActiveApplications(ctx context.Context, employeeID string) ([]leave.Application, error) {
	return activeApplications(ctx, s.db, employeeID)
}

func activeApplications(ctx context.Context, q querier, employeeID string) ([]leave.Application, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+applicationColumns+` FROM leave_applications
		WHERE employee_id = ?
		  AND status IN ('PENDING_SUPERVISOR', 'PENDING_HR', 'PENDING_CEO', 'APPROVED')
		ORDER BY start_date`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []leave.Application
	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func scanApplication(scan func(...any) error) (leave.Application, error) {
	var (
		a                    leave.Application
		start, end, ret      string
		requested, status    string
		reason, actedBy      sql.NullString
		createdAt, updatedAt string
	)
	err := scan(&a.ID, &a.EmployeeID, &a.CompanyID, &a.LeaveTypeID, &a.FiscalYear,
		&start, &end, &ret, &requested, &status, &reason, &actedBy, &createdAt, &updatedAt)
	if err != nil {
		return a, err
	}
	a.StartDate = parseDate(start)
	a.EndDate = parseDate(end)
	a.ReturnDate = parseDate(ret)
	a.RequestedDays = mustDecimal(requested)
	a.Status = leave.ApplicationStatus(status)
	a.Reason = reason.String
	a.ActedBy = actedBy.String
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return a, nil
}

func (s *Store) InsertApplication(ctx context.Context, a leave.Application) error {
	return insertApplication(ctx, s.db, a)
}

func insertApplication(ctx context.Context, q querier, a leave.Application) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EmployeeID, a.CompanyID, a.LeaveTypeID, a.FiscalYear,
		a.StartDate.String(), a.EndDate.String(), a.ReturnDate.String(),
		a.RequestedDays.String(), string(a.Status), a.Reason, a.ActedBy,
		a.CreatedAt.UTC().Format(time.RFC3339), a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) UpdateApplication(ctx context.Context, a leave.Application) error {
	return updateApplication(ctx, s.db, a)
}

func updateApplication(ctx context.Context, q querier, a leave.Application) error {
	_, err := q.ExecContext(ctx, `
		UPDATE leave_applications SET status = ?, acted_by = ?, updated_at = ?
		WHERE id = ?`,
		string(a.Status), a.ActedBy, a.UpdatedAt.UTC().Format(time.RFC3339), a.ID,
	)
	return err
}

// =============================================================================
// CASH-OUT REQUESTS
// =============================================================================

const cashoutColumns = `id, employee_id, leave_type_id, fiscal_year, days_cashed_out,
	cash_value, monthly_salary, salary_divisor, status, approver_id, created_at, updated_at`

func (s *Store) CashOutRequest(ctx context.Context, id string) (*leave.CashOutRequest, error) {
	return getCashOut(ctx, s.db,
		"SELECT "+cashoutColumns+" FROM cashout_requests WHERE id = ?", id)
}

func (s *Store) PendingCashOut(ctx context.Context, employeeID string, fiscalYear int) (*leave.CashOutRequest, error) {
	return getCashOut(ctx, s.db, `
		SELECT `+cashoutColumns+` FROM cashout_requests
		WHERE employee_id = ? AND fiscal_year = ? AND status = 'PENDING'`,
		employeeID, fiscalYear)
}

func getCashOut(ctx context.Context, q querier, query string, args ...any) (*leave.CashOutRequest, error) {
	row := q.QueryRowContext(ctx, query, args...)
	r, err := scanCashOut(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanCashOut(scan func(...any) error) (leave.CashOutRequest, error) {
	var (
		r                            leave.CashOutRequest
		days, value, salary, divisor string
		status                       string
		approver                     sql.NullString
		createdAt, updatedAt         string
	)
	err := scan(&r.ID, &r.EmployeeID, &r.LeaveTypeID, &r.FiscalYear,
		&days, &value, &salary, &divisor, &status, &approver, &createdAt, &updatedAt)
	if err != nil {
		return r, err
	}
	r.DaysCashedOut = mustDecimal(days)
	r.CashValue = mustDecimal(value)
	r.MonthlySalary = mustDecimal(salary)
	r.SalaryDivisor = mustDecimal(divisor)
	r.Status = leave.CashOutStatus(status)
	r.ApproverID = approver.String
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return r, nil
}

func (s *Store) InsertCashOut(ctx context.Context, r leave.CashOutRequest) error {
	return insertCashOut(ctx, s.db, r)
}

func insertCashOut(ctx context.Context, q querier, r leave.CashOutRequest) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO cashout_requests (`+cashoutColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.EmployeeID, r.LeaveTypeID, r.FiscalYear,
		r.DaysCashedOut.String(), r.CashValue.String(),
		r.MonthlySalary.String(), r.SalaryDivisor.String(),
		string(r.Status), r.ApproverID,
		r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		// The partial unique index caught a second PENDING request.
		return fmt.Errorf("pending cash-out exists for %s/%d: %w",
			r.EmployeeID, r.FiscalYear, engine.ErrDuplicateRequest)
	}
	return err
}

func (s *Store) UpdateCashOut(ctx context.Context, r leave.CashOutRequest) error {
	return updateCashOut(ctx, s.db, r)
}

func updateCashOut(ctx context.Context, q querier, r leave.CashOutRequest) error {
	_, err := q.ExecContext(ctx, `
		UPDATE cashout_requests SET status = ?, approver_id = ?, updated_at = ?
		WHERE id = ?`,
		string(r.Status), r.ApproverID, r.UpdatedAt.UTC().Format(time.RFC3339), r.ID,
	)
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn inside one database transaction. The Store handed to
// fn is bound to that transaction.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the transaction-bound view of the store.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Settings(ctx context.Context, companyID string) (engine.LeaveSettings, error) {
	return getSettings(ctx, ts.tx, companyID)
}

func (ts *txStore) LeaveType(ctx context.Context, id string) (engine.LeaveTypeConfig, error) {
	return getLeaveType(ctx, ts.tx, id)
}

func (ts *txStore) ListLeaveTypes(ctx context.Context, companyID string) ([]engine.LeaveTypeConfig, error) {
	return listLeaveTypes(ctx, ts.tx, companyID)
}

func (ts *txStore) Employee(ctx context.Context, id string) (engine.EmployeeSnapshot, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) Holidays(ctx context.Context, companyID string) ([]engine.Holiday, error) {
	return listHolidays(ctx, ts.tx, companyID)
}

func (ts *txStore) Balance(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int) (*leave.Balance, error) {
	return getBalance(ctx, ts.tx, employeeID, leaveTypeID, fiscalYear)
}

func (ts *txStore) ListBalances(ctx context.Context, employeeID string) ([]leave.Balance, error) {
	return listBalances(ctx, ts.tx, employeeID)
}

func (ts *txStore) InsertBalance(ctx context.Context, b leave.Balance) error {
	return insertBalance(ctx, ts.tx, b)
}

func (ts *txStore) UpdateBalance(ctx context.Context, b leave.Balance) error {
	return updateBalance(ctx, ts.tx, b)
}

func (ts *txStore) Application(ctx context.Context, id string) (*leave.Application, error) {
	return getApplication(ctx, ts.tx, id)
}

func (ts *txStore) ActiveApplications(ctx context.Context, employeeID string) ([]leave.Application, error) {
	return activeApplications(ctx, ts.tx, employeeID)
}

func (ts *txStore) InsertApplication(ctx context.Context, a leave.Application) error {
	return insertApplication(ctx, ts.tx, a)
}

func (ts *txStore) UpdateApplication(ctx context.Context, a leave.Application) error {
	return updateApplication(ctx, ts.tx, a)
}

func (ts *txStore) CashOutRequest(ctx context.Context, id string) (*leave.CashOutRequest, error) {
	return getCashOut(ctx, ts.tx,
		"SELECT "+cashoutColumns+" FROM cashout_requests WHERE id = ?", id)
}

func (ts *txStore) PendingCashOut(ctx context.Context, employeeID string, fiscalYear int) (*leave.CashOutRequest, error) {
	return getCashOut(ctx, ts.tx, `
		SELECT `+cashoutColumns+` FROM cashout_requests
		WHERE employee_id = ? AND fiscal_year = ? AND status = 'PENDING'`,
		employeeID, fiscalYear)
}

func (ts *txStore) InsertCashOut(ctx context.Context, r leave.CashOutRequest) error {
	return insertCashOut(ctx, ts.tx, r)
}

func (ts *txStore) UpdateCashOut(ctx context.Context, r leave.CashOutRequest) error {
	return updateCashOut(ctx, ts.tx, r)
}

// WithTx on a transaction-bound store runs fn in the same transaction.
func (ts *txStore) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	return fn(ts)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDate(s string) engine.Date {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return engine.Date{}
	}
	return engine.DateOf(t)
}

func nullDate(d engine.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalPtr(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	d := mustDecimal(ns.String)
	return &d
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
