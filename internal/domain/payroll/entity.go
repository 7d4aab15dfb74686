package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSettings - Company default rates
type RateSettings struct {
	ID                      string
	CompanyID               string
	IncomeTaxWithholdingPct decimal.Decimal
	EmployeeContributionPct decimal.Decimal
	EmployerContributionPct decimal.Decimal
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (s RateSettings) RateSet() RateSet {
	return RateSet{
		IncomeTaxWithholdingPct: s.IncomeTaxWithholdingPct,
		EmployeeContributionPct: s.EmployeeContributionPct,
		EmployerContributionPct: s.EmployerContributionPct,
	}
}

// PayrollComponent - Master payroll component
type PayrollComponent struct {
	ID                           string
	CompanyID                    string
	Code                         string
	Name                         string
	Kind                         Kind
	Description                  *string
	CountsTowardContributionBase bool
	CountsTowardTaxBase          bool
	IsActive                     bool
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// EmployeePayrollComponent - Component assignment to employee
type EmployeePayrollComponent struct {
	ID                 string
	EmployeeID         string
	PayrollComponentID string
	Quantity           *decimal.Decimal
	Amount             decimal.Decimal
	EffectiveDate      time.Time
	EndDate            *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Joined fields
	ComponentCode                *string
	ComponentName                *string
	ComponentKind                *Kind
	CountsTowardContributionBase *bool
	CountsTowardTaxBase          *bool
}

// PayLine builds the engine line for this assignment. ok is false when the joined
// component columns are missing.
func (a EmployeePayrollComponent) PayLine() (line PayLine, ok bool) {
	if a.ComponentKind == nil {
		return PayLine{}, false
	}
	line = PayLine{
		Kind:                         *a.ComponentKind,
		Quantity:                     a.Quantity,
		Amount:                       a.Amount,
		CountsTowardContributionBase: true,
		CountsTowardTaxBase:          true,
	}
	if a.ComponentCode != nil {
		line.Code = *a.ComponentCode
	}
	if a.ComponentName != nil {
		line.Label = *a.ComponentName
	}
	if a.CountsTowardContributionBase != nil {
		line.CountsTowardContributionBase = *a.CountsTowardContributionBase
	}
	if a.CountsTowardTaxBase != nil {
		line.CountsTowardTaxBase = *a.CountsTowardTaxBase
	}
	return line, true
}

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusDraft PayrollStatus = "draft"
	PayrollStatusPaid  PayrollStatus = "paid"
)

// BaseSalaryCode is the line code used for the contractual base salary.
const BaseSalaryCode = "SALARIO_BASE"

// PayrollRecord - One employee's payroll for one period. Lines and Rates are the
// durable inputs, Totals is what ComputeTotals returned for them.
type PayrollRecord struct {
	ID          string
	EmployeeID  string
	CompanyID   string
	PeriodMonth int
	PeriodYear  int
	Lines       []PayLine
	Rates       RateSet
	Totals      PayrollTotals
	Status      PayrollStatus
	PaidAt      *time.Time
	PaidBy      *string
	Notes       *string
	PayslipPath *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
	NationalID   *string
}
