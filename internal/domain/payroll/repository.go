package payroll

import "context"

// PayrollRepository defines data access methods for payroll.
// Every method is scoped by companyID so one tenant can never read another's rows.
type PayrollRepository interface {
	// Rate settings
	GetRateSettings(ctx context.Context, companyID string) (RateSettings, error)
	UpsertRateSettings(ctx context.Context, settings RateSettings) (RateSettings, error)

	// Components
	CreateComponent(ctx context.Context, component PayrollComponent) (PayrollComponent, error)
	GetComponentByID(ctx context.Context, id string, companyID string) (PayrollComponent, error)
	GetComponentsByCompanyID(ctx context.Context, companyID string, activeOnly bool) ([]PayrollComponent, error)
	UpdateComponent(ctx context.Context, companyID string, req UpdatePayrollComponentRequest) error
	DeleteComponent(ctx context.Context, id string, companyID string) error

	// Employee components
	AssignComponentToEmployee(ctx context.Context, assignment EmployeePayrollComponent, companyID string) (EmployeePayrollComponent, error)
	GetEmployeeComponents(ctx context.Context, employeeID string, companyID string, activeOnly bool) ([]EmployeePayrollComponent, error)
	GetEmployeeComponentsForPeriod(ctx context.Context, employeeID string, companyID string, month, year int) ([]EmployeePayrollComponent, error)
	GetEmployeeComponentByID(ctx context.Context, id string, companyID string) (EmployeePayrollComponent, error)
	UpdateEmployeeComponent(ctx context.Context, companyID string, req UpdateEmployeeComponentRequest) error
	RemoveEmployeeComponent(ctx context.Context, id string, companyID string) error

	// Payroll records
	CreatePayrollRecord(ctx context.Context, record PayrollRecord) (PayrollRecord, error)
	GetPayrollRecordByID(ctx context.Context, id string, companyID string) (PayrollRecord, error)
	GetPayrollRecordByEmployeePeriod(ctx context.Context, employeeID string, month, year int, companyID string) (PayrollRecord, error)
	ListPayrollRecords(ctx context.Context, companyID string, filter PayrollFilter) ([]PayrollRecord, int64, error)
	ListPeriodRecords(ctx context.Context, companyID string, month, year int) ([]PayrollRecord, error)
	UpdatePayrollRecord(ctx context.Context, record PayrollRecord) error
	SetPayslipPath(ctx context.Context, id string, companyID string, path string) error
	FinalizePayrollRecords(ctx context.Context, ids []string, paidBy string, companyID string) error
	DeletePayrollRecord(ctx context.Context, id string, companyID string) error
}
