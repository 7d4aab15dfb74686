package payroll

import (
	"context"
	"io"
)

// PayrollService defines payroll business logic. The company is always taken from the JWT claims.
type PayrollService interface {
	// Settings
	GetRateSettings(ctx context.Context) (RateSettingsResponse, error)
	UpdateRateSettings(ctx context.Context, req UpdateRateSettingsRequest) (RateSettingsResponse, error)

	// Components
	CreateComponent(ctx context.Context, req CreatePayrollComponentRequest) (PayrollComponentResponse, error)
	GetComponent(ctx context.Context, id string) (PayrollComponentResponse, error)
	GetComponents(ctx context.Context, activeOnly bool) ([]PayrollComponentResponse, error)
	UpdateComponent(ctx context.Context, req UpdatePayrollComponentRequest) (PayrollComponentResponse, error)
	DeleteComponent(ctx context.Context, id string) error

	// Employee components
	AssignComponent(ctx context.Context, req AssignComponentRequest) (EmployeeComponentResponse, error)
	GetEmployeeComponents(ctx context.Context, employeeID string) ([]EmployeeComponentResponse, error)
	UpdateEmployeeComponent(ctx context.Context, req UpdateEmployeeComponentRequest) (EmployeeComponentResponse, error)
	RemoveEmployeeComponent(ctx context.Context, id string) error

	// CalculateDraft computes totals without persisting anything.
	CalculateDraft(ctx context.Context, req CalculateDraftRequest) (CalculateDraftResponse, error)

	// Records
	GeneratePayroll(ctx context.Context, req GeneratePayrollRequest) ([]PayrollRecordResponse, error)
	GetPayrollRecord(ctx context.Context, id string) (PayrollRecordResponse, error)
	ListPayrollRecords(ctx context.Context, filter PayrollFilter) (ListPayrollRecordResponse, error)
	UpdatePayrollRecord(ctx context.Context, req UpdatePayrollRecordRequest) (PayrollRecordResponse, error)
	FinalizePayroll(ctx context.Context, req FinalizePayrollRequest) error
	DeletePayrollRecord(ctx context.Context, id string) error

	// Reporting
	GetPayrollSummary(ctx context.Context, month, year int) (PayrollSummaryResponse, error)
	GeneratePayslip(ctx context.Context, id string) (PayslipResponse, error)
	ExportTaxReport(ctx context.Context, req TaxReportRequest, w io.Writer) error
}
