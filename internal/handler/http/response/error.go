package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomina-hr/nomina-backend-go/internal/domain/company"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/employee"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/payroll"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Engine input errors carry the offending field
	var inputErr *payroll.InputError
	if errors.As(err, &inputErr) {
		ValidationError(w, map[string]string{inputErr.Field: inputErr.Message})
		return
	}

	switch {
	case errors.Is(err, payroll.ErrInvalidInput):
		ValidationError(w, map[string]string{"input": err.Error()})

	// Claims
	case errors.Is(err, payroll.ErrCompanyClaimMissing):
		Forbidden(w, "Company access required")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollComponentNotFound):
		NotFound(w, "Payroll component not found")
	case errors.Is(err, payroll.ErrEmployeeComponentNotFound):
		NotFound(w, "Employee component assignment not found")
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrRateSettingsNotFound):
		NotFound(w, "Payroll rate settings not found")
	case errors.Is(err, payroll.ErrPayrollComponentCodeExists):
		Conflict(w, "Payroll component code already exists")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyExists):
		Conflict(w, "Payroll record already exists for this period")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid):
		Conflict(w, "Payroll record already paid")
	case errors.Is(err, payroll.ErrCannotDeletePaidRecord):
		Conflict(w, "Cannot delete a paid payroll record")
	case errors.Is(err, payroll.ErrNoEmployeesToProcess):
		BadRequest(w, "No employees to process for this period", nil)
	case errors.Is(err, payroll.ErrPayslipStorageNotConfigured):
		ServiceUnavailable(w, "Payslip storage is not configured")

	// Employee and company
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
