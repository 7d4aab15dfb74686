package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/employee"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/payroll"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}

// ========== RATE SETTINGS ==========

func (r *payrollRepository) GetRateSettings(ctx context.Context, companyID string) (payroll.RateSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, income_tax_withholding_pct, employee_contribution_pct,
			   employer_contribution_pct, created_at, updated_at
		FROM payroll_rate_settings
		WHERE company_id = $1
	`

	var s payroll.RateSettings
	err := q.QueryRow(ctx, query, companyID).Scan(
		&s.ID, &s.CompanyID, &s.IncomeTaxWithholdingPct, &s.EmployeeContributionPct,
		&s.EmployerContributionPct, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.RateSettings{}, payroll.ErrRateSettingsNotFound
		}
		return payroll.RateSettings{}, fmt.Errorf("failed to get payroll rate settings: %w", err)
	}

	return s, nil
}

func (r *payrollRepository) UpsertRateSettings(ctx context.Context, settings payroll.RateSettings) (payroll.RateSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_rate_settings (
			company_id, income_tax_withholding_pct, employee_contribution_pct, employer_contribution_pct
		) VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id) DO UPDATE SET
			income_tax_withholding_pct = EXCLUDED.income_tax_withholding_pct,
			employee_contribution_pct = EXCLUDED.employee_contribution_pct,
			employer_contribution_pct = EXCLUDED.employer_contribution_pct,
			updated_at = NOW()
		RETURNING id, company_id, income_tax_withholding_pct, employee_contribution_pct,
			employer_contribution_pct, created_at, updated_at
	`

	var s payroll.RateSettings
	err := q.QueryRow(ctx, query,
		settings.CompanyID, settings.IncomeTaxWithholdingPct, settings.EmployeeContributionPct, settings.EmployerContributionPct,
	).Scan(
		&s.ID, &s.CompanyID, &s.IncomeTaxWithholdingPct, &s.EmployeeContributionPct,
		&s.EmployerContributionPct, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return payroll.RateSettings{}, fmt.Errorf("failed to upsert payroll rate settings: %w", err)
	}

	return s, nil
}

// ========== COMPONENTS ==========

const componentColumns = `id, company_id, code, name, kind, description,
	counts_toward_contribution_base, counts_toward_tax_base, is_active, created_at, updated_at`

func scanComponent(row pgx.Row) (payroll.PayrollComponent, error) {
	var c payroll.PayrollComponent
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Kind, &c.Description,
		&c.CountsTowardContributionBase, &c.CountsTowardTaxBase, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *payrollRepository) CreateComponent(ctx context.Context, component payroll.PayrollComponent) (payroll.PayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_components (
			company_id, code, name, kind, description,
			counts_toward_contribution_base, counts_toward_tax_base, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + componentColumns

	c, err := scanComponent(q.QueryRow(ctx, query,
		component.CompanyID, component.Code, component.Name, component.Kind, component.Description,
		component.CountsTowardContributionBase, component.CountsTowardTaxBase, component.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err, "uk_payroll_component_code") {
			return payroll.PayrollComponent{}, payroll.ErrPayrollComponentCodeExists
		}
		return payroll.PayrollComponent{}, fmt.Errorf("failed to create payroll component: %w", err)
	}

	return c, nil
}

func (r *payrollRepository) GetComponentByID(ctx context.Context, id string, companyID string) (payroll.PayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + ` FROM payroll_components WHERE id = $1 AND company_id = $2`

	c, err := scanComponent(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollComponent{}, payroll.ErrPayrollComponentNotFound
		}
		return payroll.PayrollComponent{}, fmt.Errorf("failed to get payroll component: %w", err)
	}

	return c, nil
}

func (r *payrollRepository) GetComponentsByCompanyID(ctx context.Context, companyID string, activeOnly bool) ([]payroll.PayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + ` FROM payroll_components WHERE company_id = $1`
	if activeOnly {
		query += " AND is_active = true"
	}
	query += " ORDER BY kind DESC, code"

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll components: %w", err)
	}
	defer rows.Close()

	var components []payroll.PayrollComponent
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll component: %w", err)
		}
		components = append(components, c)
	}

	return components, rows.Err()
}

func (r *payrollRepository) UpdateComponent(ctx context.Context, companyID string, req payroll.UpdatePayrollComponentRequest) error {
	q := GetQuerier(ctx, r.db)

	setParts := []string{"updated_at = NOW()"}
	args := []interface{}{req.ID, companyID}

	set := func(column string, value interface{}) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.Name != nil {
		set("name", strings.TrimSpace(*req.Name))
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.CountsTowardContributionBase != nil {
		set("counts_toward_contribution_base", *req.CountsTowardContributionBase)
	}
	if req.CountsTowardTaxBase != nil {
		set("counts_toward_tax_base", *req.CountsTowardTaxBase)
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}

	query := fmt.Sprintf(`
		UPDATE payroll_components
		SET %s
		WHERE id = $1 AND company_id = $2
		RETURNING id
	`, strings.Join(setParts, ", "))

	var updatedID string
	err := q.QueryRow(ctx, query, args...).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.ErrPayrollComponentNotFound
		}
		return fmt.Errorf("failed to update payroll component: %w", err)
	}

	return nil
}

func (r *payrollRepository) DeleteComponent(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM payroll_components WHERE id = $1 AND company_id = $2 RETURNING id`

	var deletedID string
	err := q.QueryRow(ctx, query, id, companyID).Scan(&deletedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.ErrPayrollComponentNotFound
		}
		return fmt.Errorf("failed to delete payroll component: %w", err)
	}

	return nil
}

// ========== EMPLOYEE COMPONENTS ==========

const employeeComponentSelect = `
	SELECT epc.id, epc.employee_id, epc.payroll_component_id, epc.quantity, epc.amount,
		   epc.effective_date, epc.end_date, epc.created_at, epc.updated_at,
		   pc.code, pc.name, pc.kind, pc.counts_toward_contribution_base, pc.counts_toward_tax_base
	FROM employee_payroll_components epc
	JOIN payroll_components pc ON epc.payroll_component_id = pc.id
	JOIN employees e ON epc.employee_id = e.id
`

func scanEmployeeComponent(row pgx.Row) (payroll.EmployeePayrollComponent, error) {
	var a payroll.EmployeePayrollComponent
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.PayrollComponentID, &a.Quantity, &a.Amount,
		&a.EffectiveDate, &a.EndDate, &a.CreatedAt, &a.UpdatedAt,
		&a.ComponentCode, &a.ComponentName, &a.ComponentKind,
		&a.CountsTowardContributionBase, &a.CountsTowardTaxBase,
	)
	return a, err
}

func (r *payrollRepository) AssignComponentToEmployee(ctx context.Context, assignment payroll.EmployeePayrollComponent, companyID string) (payroll.EmployeePayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	// Verify employee belongs to company
	var empExists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL)`, assignment.EmployeeID, companyID).Scan(&empExists)
	if err != nil {
		return payroll.EmployeePayrollComponent{}, fmt.Errorf("failed to check employee: %w", err)
	}
	if !empExists {
		return payroll.EmployeePayrollComponent{}, employee.ErrEmployeeNotFound
	}

	// Verify component belongs to company
	var compExists bool
	err = q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payroll_components WHERE id = $1 AND company_id = $2)`, assignment.PayrollComponentID, companyID).Scan(&compExists)
	if err != nil {
		return payroll.EmployeePayrollComponent{}, fmt.Errorf("failed to check payroll component: %w", err)
	}
	if !compExists {
		return payroll.EmployeePayrollComponent{}, payroll.ErrPayrollComponentNotFound
	}

	var id string
	err = q.QueryRow(ctx, `
		INSERT INTO employee_payroll_components (employee_id, payroll_component_id, quantity, amount, effective_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		assignment.EmployeeID, assignment.PayrollComponentID, assignment.Quantity, assignment.Amount,
		assignment.EffectiveDate, assignment.EndDate,
	).Scan(&id)
	if err != nil {
		return payroll.EmployeePayrollComponent{}, fmt.Errorf("failed to assign component to employee: %w", err)
	}

	return r.GetEmployeeComponentByID(ctx, id, companyID)
}

func (r *payrollRepository) GetEmployeeComponents(ctx context.Context, employeeID string, companyID string, activeOnly bool) ([]payroll.EmployeePayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := employeeComponentSelect + ` WHERE epc.employee_id = $1 AND e.company_id = $2`
	if activeOnly {
		query += ` AND pc.is_active = true AND epc.effective_date <= CURRENT_DATE AND (epc.end_date IS NULL OR epc.end_date >= CURRENT_DATE)`
	}
	query += " ORDER BY pc.kind DESC, pc.code, epc.effective_date"

	rows, err := q.Query(ctx, query, employeeID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee components: %w", err)
	}
	defer rows.Close()

	var assignments []payroll.EmployeePayrollComponent
	for rows.Next() {
		a, err := scanEmployeeComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee component: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

// GetEmployeeComponentsForPeriod returns the assignments of active components that
// overlap the given month.
func (r *payrollRepository) GetEmployeeComponentsForPeriod(ctx context.Context, employeeID string, companyID string, month, year int) ([]payroll.EmployeePayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	periodStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, -1)

	query := employeeComponentSelect + `
		WHERE epc.employee_id = $1 AND e.company_id = $2 AND pc.is_active = true
		  AND epc.effective_date <= $3 AND (epc.end_date IS NULL OR epc.end_date >= $4)
		ORDER BY pc.kind DESC, pc.code, epc.effective_date`

	rows, err := q.Query(ctx, query, employeeID, companyID, periodEnd, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee components for period: %w", err)
	}
	defer rows.Close()

	var assignments []payroll.EmployeePayrollComponent
	for rows.Next() {
		a, err := scanEmployeeComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee component: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func (r *payrollRepository) GetEmployeeComponentByID(ctx context.Context, id string, companyID string) (payroll.EmployeePayrollComponent, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanEmployeeComponent(q.QueryRow(ctx, employeeComponentSelect+` WHERE epc.id = $1 AND e.company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.EmployeePayrollComponent{}, payroll.ErrEmployeeComponentNotFound
		}
		return payroll.EmployeePayrollComponent{}, fmt.Errorf("failed to get employee component: %w", err)
	}

	return a, nil
}

func (r *payrollRepository) UpdateEmployeeComponent(ctx context.Context, companyID string, req payroll.UpdateEmployeeComponentRequest) error {
	q := GetQuerier(ctx, r.db)

	setParts := []string{"updated_at = NOW()"}
	args := []interface{}{req.ID, companyID}

	set := func(column string, value interface{}) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.Amount != nil {
		set("amount", *req.Amount)
	}
	if req.Quantity != nil {
		set("quantity", *req.Quantity)
	}
	if req.EffectiveDate != nil {
		if effectiveDate, err := time.Parse("2006-01-02", *req.EffectiveDate); err == nil {
			set("effective_date", effectiveDate)
		}
	}
	if req.EndDate != nil {
		if endDate, err := time.Parse("2006-01-02", *req.EndDate); err == nil {
			set("end_date", endDate)
		}
	}

	query := fmt.Sprintf(`
		UPDATE employee_payroll_components epc
		SET %s
		FROM employees e
		WHERE epc.id = $1 AND epc.employee_id = e.id AND e.company_id = $2
		RETURNING epc.id
	`, strings.Join(setParts, ", "))

	var updatedID string
	err := q.QueryRow(ctx, query, args...).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.ErrEmployeeComponentNotFound
		}
		return fmt.Errorf("failed to update employee component: %w", err)
	}

	return nil
}

func (r *payrollRepository) RemoveEmployeeComponent(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM employee_payroll_components epc
		USING employees e
		WHERE epc.id = $1 AND epc.employee_id = e.id AND e.company_id = $2
		RETURNING epc.id
	`

	var deletedID string
	err := q.QueryRow(ctx, query, id, companyID).Scan(&deletedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.ErrEmployeeComponentNotFound
		}
		return fmt.Errorf("failed to remove employee component: %w", err)
	}

	return nil
}

// ========== PAYROLL RECORDS ==========

const recordColumns = `pr.id, pr.employee_id, pr.company_id, pr.period_month, pr.period_year, pr.lines,
	pr.income_tax_withholding_pct, pr.employee_contribution_pct, pr.employer_contribution_pct,
	pr.gross_earnings, pr.manual_deductions, pr.contribution_base, pr.tax_base,
	pr.employee_contribution, pr.employer_contribution, pr.income_tax_withheld,
	pr.total_deductions, pr.net_pay, pr.status, pr.paid_at, pr.paid_by, pr.notes, pr.payslip_path,
	pr.created_at, pr.updated_at,
	e.full_name, e.employee_code, e.national_id`

const recordFrom = `
	FROM payroll_records pr
	JOIN employees e ON pr.employee_id = e.id
`

func scanRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var rec payroll.PayrollRecord
	var linesBytes []byte
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.CompanyID, &rec.PeriodMonth, &rec.PeriodYear, &linesBytes,
		&rec.Rates.IncomeTaxWithholdingPct, &rec.Rates.EmployeeContributionPct, &rec.Rates.EmployerContributionPct,
		&rec.Totals.GrossEarnings, &rec.Totals.ManualDeductions, &rec.Totals.ContributionBase, &rec.Totals.TaxBase,
		&rec.Totals.EmployeeContribution, &rec.Totals.EmployerContribution, &rec.Totals.IncomeTaxWithheld,
		&rec.Totals.TotalDeductions, &rec.Totals.NetPay, &rec.Status, &rec.PaidAt, &rec.PaidBy, &rec.Notes, &rec.PayslipPath,
		&rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName, &rec.EmployeeCode, &rec.NationalID,
	)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	if err := applyStoredLines(&rec, linesBytes); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	return rec, nil
}

// applyStoredLines sets rec.Lines. When any line was stored in a legacy shape the
// totals columns were computed from signed amounts, so they are recomputed from the
// normalized lines and the record's own rates.
func applyStoredLines(rec *payroll.PayrollRecord, data []byte) error {
	lines, legacy, err := decodeStoredLines(data)
	if err != nil {
		return err
	}
	rec.Lines = lines
	if !legacy {
		return nil
	}
	totals, err := payroll.ComputeTotals(lines, rec.Rates)
	if err != nil {
		return fmt.Errorf("recompute legacy totals: %w", err)
	}
	rec.Totals = totals
	return nil
}

func (r *payrollRepository) CreatePayrollRecord(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	linesJSON, err := json.Marshal(record.Lines)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to encode payroll lines: %w", err)
	}

	query := `
		INSERT INTO payroll_records (
			employee_id, company_id, period_month, period_year, lines,
			income_tax_withholding_pct, employee_contribution_pct, employer_contribution_pct,
			gross_earnings, manual_deductions, contribution_base, tax_base,
			employee_contribution, employer_contribution, income_tax_withheld,
			total_deductions, net_pay, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id
	`

	t := record.Totals
	var id string
	err = q.QueryRow(ctx, query,
		record.EmployeeID, record.CompanyID, record.PeriodMonth, record.PeriodYear, linesJSON,
		record.Rates.IncomeTaxWithholdingPct, record.Rates.EmployeeContributionPct, record.Rates.EmployerContributionPct,
		t.GrossEarnings, t.ManualDeductions, t.ContributionBase, t.TaxBase,
		t.EmployeeContribution, t.EmployerContribution, t.IncomeTaxWithheld,
		t.TotalDeductions, t.NetPay, record.Status, record.Notes,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "uk_employee_period") {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordAlreadyExists
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to create payroll record: %w", err)
	}

	return r.GetPayrollRecordByID(ctx, id, record.CompanyID)
}

func (r *payrollRepository) GetPayrollRecordByID(ctx context.Context, id string, companyID string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + recordFrom + ` WHERE pr.id = $1 AND pr.company_id = $2`

	rec, err := scanRecord(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) GetPayrollRecordByEmployeePeriod(ctx context.Context, employeeID string, month, year int, companyID string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + recordFrom +
		` WHERE pr.employee_id = $1 AND pr.period_month = $2 AND pr.period_year = $3 AND pr.company_id = $4`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, month, year, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) ListPayrollRecords(ctx context.Context, companyID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := ` WHERE pr.company_id = $1`
	args := []interface{}{companyID}

	addFilter := func(clause string, value interface{}) {
		args = append(args, value)
		where += fmt.Sprintf(" AND %s = $%d", clause, len(args))
	}
	if filter.PeriodMonth != nil {
		addFilter("pr.period_month", *filter.PeriodMonth)
	}
	if filter.PeriodYear != nil {
		addFilter("pr.period_year", *filter.PeriodYear)
	}
	if filter.Status != nil {
		addFilter("pr.status", *filter.Status)
	}
	if filter.EmployeeID != nil {
		addFilter("pr.employee_id", *filter.EmployeeID)
	}

	// Count query
	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+recordFrom+where, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	// Sort
	sortColumn := "pr.created_at"
	allowedColumns := map[string]string{
		"created_at":    "pr.created_at",
		"period":        "pr.period_year DESC, pr.period_month",
		"employee_name": "e.full_name",
		"net_pay":       "pr.net_pay",
		"gross":         "pr.gross_earnings",
	}
	if col, ok := allowedColumns[filter.SortBy]; ok {
		sortColumn = col
	}
	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	// Pagination
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		recordColumns, recordFrom, where, sortColumn, sortOrder, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	records, err := r.queryRecords(ctx, q, selectQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	return records, totalCount, nil
}

func (r *payrollRepository) ListPeriodRecords(ctx context.Context, companyID string, month, year int) ([]payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + recordFrom +
		` WHERE pr.company_id = $1 AND pr.period_month = $2 AND pr.period_year = $3 ORDER BY e.full_name, pr.id`

	return r.queryRecords(ctx, q, query, companyID, month, year)
}

func (r *payrollRepository) queryRecords(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]payroll.PayrollRecord, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpdatePayrollRecord overwrites lines, rates, totals and notes of a draft record.
func (r *payrollRepository) UpdatePayrollRecord(ctx context.Context, record payroll.PayrollRecord) error {
	q := GetQuerier(ctx, r.db)

	linesJSON, err := json.Marshal(record.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode payroll lines: %w", err)
	}

	t := record.Totals
	tag, err := q.Exec(ctx, `
		UPDATE payroll_records SET
			lines = $3,
			income_tax_withholding_pct = $4, employee_contribution_pct = $5, employer_contribution_pct = $6,
			gross_earnings = $7, manual_deductions = $8, contribution_base = $9, tax_base = $10,
			employee_contribution = $11, employer_contribution = $12, income_tax_withheld = $13,
			total_deductions = $14, net_pay = $15, notes = $16,
			payslip_path = NULL, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = 'draft'
	`,
		record.ID, record.CompanyID, linesJSON,
		record.Rates.IncomeTaxWithholdingPct, record.Rates.EmployeeContributionPct, record.Rates.EmployerContributionPct,
		t.GrossEarnings, t.ManualDeductions, t.ContributionBase, t.TaxBase,
		t.EmployeeContribution, t.EmployerContribution, t.IncomeTaxWithheld,
		t.TotalDeductions, t.NetPay, record.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrPaid(ctx, q, record.ID, record.CompanyID, payroll.ErrPayrollRecordAlreadyPaid)
	}

	return nil
}

func (r *payrollRepository) SetPayslipPath(ctx context.Context, id string, companyID string, path string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE payroll_records SET payslip_path = $3, updated_at = NOW() WHERE id = $1 AND company_id = $2`, id, companyID, path)
	if err != nil {
		return fmt.Errorf("failed to set payslip path: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollRecordNotFound
	}

	return nil
}

func (r *payrollRepository) FinalizePayrollRecords(ctx context.Context, ids []string, paidBy string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_records
		SET status = 'paid', paid_at = NOW(), paid_by = $1, updated_at = NOW()
		WHERE id = ANY($2) AND company_id = $3 AND status = 'draft'
	`

	_, err := q.Exec(ctx, query, paidBy, ids, companyID)
	if err != nil {
		return fmt.Errorf("failed to finalize payroll records: %w", err)
	}

	return nil
}

func (r *payrollRepository) DeletePayrollRecord(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM payroll_records WHERE id = $1 AND company_id = $2 AND status = 'draft'`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payroll record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrPaid(ctx, q, id, companyID, payroll.ErrCannotDeletePaidRecord)
	}

	return nil
}

// missingOrPaid explains why a draft-only statement touched no rows.
func (r *payrollRepository) missingOrPaid(ctx context.Context, q database.Querier, id, companyID string, paidErr error) error {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM payroll_records WHERE id = $1 AND company_id = $2`, id, companyID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.ErrPayrollRecordNotFound
		}
		return fmt.Errorf("failed to check payroll record status: %w", err)
	}
	if status == string(payroll.PayrollStatusPaid) {
		return paidErr
	}
	return payroll.ErrPayrollRecordNotFound
}

// ========== STORED LINE NORMALIZATION ==========

// storedLine accepts every shape the lines column has held. Older rows used "type"
// and "name" and kept deductions as negative amounts.
type storedLine struct {
	Kind                         string           `json:"kind"`
	Type                         string           `json:"type"`
	Code                         string           `json:"code"`
	Label                        string           `json:"label"`
	Name                         string           `json:"name"`
	Quantity                     *decimal.Decimal `json:"quantity"`
	Amount                       decimal.Decimal  `json:"amount"`
	CountsTowardContributionBase *bool            `json:"counts_toward_contribution_base"`
	CountsTowardTaxBase          *bool            `json:"counts_toward_tax_base"`
}

// decodeStoredLines reports legacy when any line lacked a kind or held a negative amount.
func decodeStoredLines(data []byte) ([]payroll.PayLine, bool, error) {
	if len(data) == 0 {
		return []payroll.PayLine{}, false, nil
	}

	var stored []storedLine
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, false, fmt.Errorf("decode payroll lines: %w", err)
	}

	legacy := false
	lines := make([]payroll.PayLine, 0, len(stored))
	for i, s := range stored {
		line, err := normalizeStoredLine(s)
		if err != nil {
			return nil, false, fmt.Errorf("lines[%d]: %w", i, err)
		}
		if s.Kind == "" || s.Amount.IsNegative() {
			legacy = true
		}
		lines = append(lines, line)
	}
	return lines, legacy, nil
}

// normalizeStoredLine maps a stored line onto the PayLine shape: the kind carries the sign
// and the amount is always a magnitude.
func normalizeStoredLine(s storedLine) (payroll.PayLine, error) {
	kindStr := s.Kind
	if kindStr == "" {
		kindStr = s.Type
	}
	kind := payroll.Kind(strings.ToLower(strings.TrimSpace(kindStr)))
	switch kind {
	case "allowance":
		kind = payroll.KindEarning
	case "":
		kind = payroll.KindEarning
		if s.Amount.IsNegative() {
			kind = payroll.KindDeduction
		}
	}
	if !kind.IsValid() {
		return payroll.PayLine{}, fmt.Errorf("unknown line kind %q", kindStr)
	}

	label := s.Label
	if label == "" {
		label = s.Name
	}

	line := payroll.PayLine{
		Kind:                         kind,
		Code:                         s.Code,
		Label:                        label,
		Quantity:                     s.Quantity,
		Amount:                       s.Amount.Abs(),
		CountsTowardContributionBase: true,
		CountsTowardTaxBase:          true,
	}
	if s.CountsTowardContributionBase != nil {
		line.CountsTowardContributionBase = *s.CountsTowardContributionBase
	}
	if s.CountsTowardTaxBase != nil {
		line.CountsTowardTaxBase = *s.CountsTowardTaxBase
	}
	return line, nil
}
