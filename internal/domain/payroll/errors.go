package payroll

import "errors"

var (
	ErrInvalidInput                = errors.New("invalid payroll input")
	ErrRateSettingsNotFound        = errors.New("payroll rate settings not found")
	ErrPayrollComponentNotFound    = errors.New("payroll component not found")
	ErrPayrollComponentCodeExists  = errors.New("payroll component code already exists")
	ErrPayrollRecordNotFound       = errors.New("payroll record not found")
	ErrPayrollRecordAlreadyExists  = errors.New("payroll record already exists for this period")
	ErrPayrollRecordAlreadyPaid    = errors.New("payroll record already paid, cannot modify")
	ErrCannotDeletePaidRecord      = errors.New("cannot delete paid payroll record")
	ErrEmployeeComponentNotFound   = errors.New("employee component assignment not found")
	ErrNoEmployeesToProcess        = errors.New("no employees to process for this period")
	ErrCompanyClaimMissing         = errors.New("company_id claim is missing or invalid")
	ErrPayslipStorageNotConfigured = errors.New("payslip storage is not configured")
)
