package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/nomina-hr/nomina-backend-go/internal/pkg/database"
)

// TestDatabaseSetup wraps the integration database.
type TestDatabaseSetup struct {
	DB *database.DB
}

const testSchema = `
CREATE TABLE IF NOT EXISTS companies (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	tax_id TEXT,
	address TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS employees (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	company_id UUID NOT NULL REFERENCES companies(id),
	employee_code TEXT NOT NULL,
	full_name TEXT NOT NULL,
	national_id TEXT,
	email TEXT,
	hire_date DATE NOT NULL DEFAULT CURRENT_DATE,
	resignation_date DATE,
	employment_status TEXT NOT NULL DEFAULT 'active',
	bank_account_iban TEXT,
	base_salary NUMERIC(12,2),
	income_tax_withholding_pct NUMERIC(5,2),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS payroll_rate_settings (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	company_id UUID NOT NULL UNIQUE REFERENCES companies(id),
	income_tax_withholding_pct NUMERIC(5,2) NOT NULL DEFAULT 0,
	employee_contribution_pct NUMERIC(5,2) NOT NULL DEFAULT 0,
	employer_contribution_pct NUMERIC(5,2) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS payroll_components (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	company_id UUID NOT NULL REFERENCES companies(id),
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('earning', 'deduction')),
	description TEXT,
	counts_toward_contribution_base BOOLEAN NOT NULL DEFAULT TRUE,
	counts_toward_tax_base BOOLEAN NOT NULL DEFAULT TRUE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uk_payroll_component_code UNIQUE (company_id, code)
);

CREATE TABLE IF NOT EXISTS employee_payroll_components (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	employee_id UUID NOT NULL REFERENCES employees(id),
	payroll_component_id UUID NOT NULL REFERENCES payroll_components(id) ON DELETE CASCADE,
	quantity NUMERIC(12,4),
	amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
	effective_date DATE NOT NULL DEFAULT CURRENT_DATE,
	end_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS payroll_records (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	employee_id UUID NOT NULL REFERENCES employees(id),
	company_id UUID NOT NULL REFERENCES companies(id),
	period_month INT NOT NULL,
	period_year INT NOT NULL,
	lines JSONB NOT NULL DEFAULT '[]',
	income_tax_withholding_pct NUMERIC(7,2) NOT NULL,
	employee_contribution_pct NUMERIC(7,2) NOT NULL,
	employer_contribution_pct NUMERIC(7,2) NOT NULL,
	gross_earnings NUMERIC(14,2) NOT NULL,
	manual_deductions NUMERIC(14,2) NOT NULL,
	contribution_base NUMERIC(14,2) NOT NULL,
	tax_base NUMERIC(14,2) NOT NULL,
	employee_contribution NUMERIC(14,2) NOT NULL,
	employer_contribution NUMERIC(14,2) NOT NULL,
	income_tax_withheld NUMERIC(14,2) NOT NULL,
	total_deductions NUMERIC(14,2) NOT NULL,
	net_pay NUMERIC(14,2) NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	paid_at TIMESTAMPTZ,
	paid_by UUID,
	notes TEXT,
	payslip_path TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uk_employee_period UNIQUE (employee_id, period_month, period_year)
);
`

// NewTestDatabase connects to TEST_DATABASE_URL and creates the payroll schema.
// Tests are skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 4, MinConns: 1})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if _, err := db.Exec(ctx, testSchema); err != nil {
		db.Close()
		t.Fatalf("failed to create schema: %v", err)
	}

	setup := &TestDatabaseSetup{DB: db}
	t.Cleanup(setup.Close)
	if err := setup.TruncateAllTables(ctx); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return setup
}

// TruncateAllTables removes every row written by previous tests.
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"payroll_records",
		"employee_payroll_components",
		"payroll_components",
		"payroll_rate_settings",
		"employees",
		"companies",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}

func (s *TestDatabaseSetup) CreateCompany(t *testing.T, ctx context.Context, name string) string {
	t.Helper()
	var id string
	if err := s.DB.QueryRow(ctx, `INSERT INTO companies (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		t.Fatalf("create company: %v", err)
	}
	return id
}

func (s *TestDatabaseSetup) CreateEmployee(t *testing.T, ctx context.Context, companyID, code, name, nif, baseSalary string) string {
	t.Helper()
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO employees (company_id, employee_code, full_name, national_id, base_salary)
		VALUES ($1, $2, $3, $4, $5::numeric)
		RETURNING id
	`, companyID, code, name, nif, baseSalary).Scan(&id)
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return id
}
