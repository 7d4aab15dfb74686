package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the payroll-facing view of an employee row.
type Employee struct {
	ID               string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	NationalID       *string
	Email            *string
	HireDate         time.Time
	ResignationDate  *time.Time
	EmploymentStatus EmploymentStatus
	BankAccountIBAN  *string
	BaseSalary       *decimal.Decimal
	// Per-employee IRPF percentage; nil means the company default applies.
	IncomeTaxWithholdingPct *decimal.Decimal
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
