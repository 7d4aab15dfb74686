package payroll

import (
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ========== RATE SETTINGS DTOs ==========

type RateSettingsResponse struct {
	ID                      string          `json:"id,omitempty"`
	CompanyID               string          `json:"company_id"`
	IncomeTaxWithholdingPct decimal.Decimal `json:"income_tax_withholding_pct"`
	EmployeeContributionPct decimal.Decimal `json:"employee_contribution_pct"`
	EmployerContributionPct decimal.Decimal `json:"employer_contribution_pct"`
}

type UpdateRateSettingsRequest struct {
	IncomeTaxWithholdingPct *decimal.Decimal `json:"income_tax_withholding_pct,omitempty"`
	EmployeeContributionPct *decimal.Decimal `json:"employee_contribution_pct,omitempty"`
	EmployerContributionPct *decimal.Decimal `json:"employer_contribution_pct,omitempty"`
}

// Validate keeps stored company defaults within 0-100.
func (r *UpdateRateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	check := func(field string, v *decimal.Decimal) {
		if v == nil {
			return
		}
		if msg := magnitudeProblem(*v); msg != "" {
			errs = append(errs, validator.ValidationError{Field: field, Message: msg})
			return
		}
		if v.IsNegative() || v.GreaterThan(hundred) {
			errs = append(errs, validator.ValidationError{Field: field, Message: "must be between 0 and 100"})
		}
	}
	check("income_tax_withholding_pct", r.IncomeTaxWithholdingPct)
	check("employee_contribution_pct", r.EmployeeContributionPct)
	check("employer_contribution_pct", r.EmployerContributionPct)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== COMPONENT DTOs ==========

type CreatePayrollComponentRequest struct {
	Code                         string  `json:"code" validate:"required"`
	Name                         string  `json:"name" validate:"required,max=100"`
	Kind                         string  `json:"kind" validate:"oneof=earning deduction"`
	Description                  *string `json:"description,omitempty"`
	CountsTowardContributionBase *bool   `json:"counts_toward_contribution_base,omitempty"`
	CountsTowardTaxBase          *bool   `json:"counts_toward_tax_base,omitempty"`
}

func (r *CreatePayrollComponentRequest) Validate() error {
	errs := validator.Struct(r)

	if r.Code != "" && !validator.IsValidComponentCode(r.Code) {
		errs = append(errs, validator.ValidationError{Field: "code", Message: "must be 2-32 upper-case letters, digits or underscores"})
	}
	if r.Code == BaseSalaryCode {
		errs = append(errs, validator.ValidationError{Field: "code", Message: "is reserved"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdatePayrollComponentRequest struct {
	ID                           string
	Name                         *string `json:"name,omitempty"`
	Description                  *string `json:"description,omitempty"`
	CountsTowardContributionBase *bool   `json:"counts_toward_contribution_base,omitempty"`
	CountsTowardTaxBase          *bool   `json:"counts_toward_tax_base,omitempty"`
	IsActive                     *bool   `json:"is_active,omitempty"`
}

func (r *UpdatePayrollComponentRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "must not be empty"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrollComponentResponse struct {
	ID                           string  `json:"id"`
	CompanyID                    string  `json:"company_id"`
	Code                         string  `json:"code"`
	Name                         string  `json:"name"`
	Kind                         string  `json:"kind"`
	Description                  *string `json:"description,omitempty"`
	CountsTowardContributionBase bool    `json:"counts_toward_contribution_base"`
	CountsTowardTaxBase          bool    `json:"counts_toward_tax_base"`
	IsActive                     bool    `json:"is_active"`
}

// ========== EMPLOYEE COMPONENT DTOs ==========

type AssignComponentRequest struct {
	EmployeeID         string           `json:"-"`
	PayrollComponentID string           `json:"payroll_component_id" validate:"required"`
	Amount             decimal.Decimal  `json:"amount"`
	Quantity           *decimal.Decimal `json:"quantity,omitempty"`
	EffectiveDate      *string          `json:"effective_date,omitempty"`
	EndDate            *string          `json:"end_date,omitempty"`
}

func (r *AssignComponentRequest) Validate() error {
	errs := validator.Struct(r)

	if msg := magnitudeProblem(r.Amount); msg != "" {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: msg})
	} else if r.Amount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be non-negative"})
	}
	if r.Quantity != nil {
		if msg := magnitudeProblem(*r.Quantity); msg != "" {
			errs = append(errs, validator.ValidationError{Field: "quantity", Message: msg})
		}
	}
	if r.EffectiveDate != nil {
		if _, ok := validator.IsValidDate(*r.EffectiveDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "effective_date", Message: "must be YYYY-MM-DD"})
		}
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be YYYY-MM-DD"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateEmployeeComponentRequest struct {
	ID            string
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
	EffectiveDate *string          `json:"effective_date,omitempty"`
	EndDate       *string          `json:"end_date,omitempty"`
}

func (r *UpdateEmployeeComponentRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Amount != nil {
		if msg := magnitudeProblem(*r.Amount); msg != "" {
			errs = append(errs, validator.ValidationError{Field: "amount", Message: msg})
		} else if r.Amount.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be non-negative"})
		}
	}
	if r.Quantity != nil {
		if msg := magnitudeProblem(*r.Quantity); msg != "" {
			errs = append(errs, validator.ValidationError{Field: "quantity", Message: msg})
		}
	}
	if r.EffectiveDate != nil {
		if _, ok := validator.IsValidDate(*r.EffectiveDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "effective_date", Message: "must be YYYY-MM-DD"})
		}
	}
	if r.EndDate != nil {
		if _, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be YYYY-MM-DD"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeComponentResponse struct {
	ID                 string           `json:"id"`
	EmployeeID         string           `json:"employee_id"`
	PayrollComponentID string           `json:"payroll_component_id"`
	ComponentCode      string           `json:"component_code"`
	ComponentName      string           `json:"component_name"`
	ComponentKind      string           `json:"component_kind"`
	Quantity           *decimal.Decimal `json:"quantity,omitempty"`
	Amount             decimal.Decimal  `json:"amount"`
	EffectiveDate      string           `json:"effective_date"`
	EndDate            *string          `json:"end_date,omitempty"`
}

// ========== CALCULATION DTOs ==========

type CalculateDraftRequest struct {
	EmployeeID *string        `json:"employee_id,omitempty"`
	Lines      []PayLineInput `json:"lines"`
	Rates      *RateSetInput  `json:"rates,omitempty"`
}

// TotalsResponse renders every amount with exactly two decimals.
type TotalsResponse struct {
	GrossEarnings        string `json:"gross_earnings"`
	ManualDeductions     string `json:"manual_deductions"`
	ContributionBase     string `json:"contribution_base"`
	TaxBase              string `json:"tax_base"`
	EmployeeContribution string `json:"employee_contribution"`
	EmployerContribution string `json:"employer_contribution"`
	IncomeTaxWithheld    string `json:"income_tax_withheld"`
	TotalDeductions      string `json:"total_deductions"`
	NetPay               string `json:"net_pay"`
}

func NewTotalsResponse(t PayrollTotals) TotalsResponse {
	return TotalsResponse{
		GrossEarnings:        t.GrossEarnings.StringFixed(moneyPlaces),
		ManualDeductions:     t.ManualDeductions.StringFixed(moneyPlaces),
		ContributionBase:     t.ContributionBase.StringFixed(moneyPlaces),
		TaxBase:              t.TaxBase.StringFixed(moneyPlaces),
		EmployeeContribution: t.EmployeeContribution.StringFixed(moneyPlaces),
		EmployerContribution: t.EmployerContribution.StringFixed(moneyPlaces),
		IncomeTaxWithheld:    t.IncomeTaxWithheld.StringFixed(moneyPlaces),
		TotalDeductions:      t.TotalDeductions.StringFixed(moneyPlaces),
		NetPay:               t.NetPay.StringFixed(moneyPlaces),
	}
}

type PayLineResponse struct {
	Kind                         string  `json:"kind"`
	Code                         string  `json:"code"`
	Label                        string  `json:"label"`
	Quantity                     *string `json:"quantity,omitempty"`
	Amount                       string  `json:"amount"`
	CountsTowardContributionBase bool    `json:"counts_toward_contribution_base"`
	CountsTowardTaxBase          bool    `json:"counts_toward_tax_base"`
}

func NewPayLineResponses(lines []PayLine) []PayLineResponse {
	result := make([]PayLineResponse, 0, len(lines))
	for _, l := range lines {
		var qty *string
		if l.Quantity != nil {
			s := l.Quantity.String()
			qty = &s
		}
		result = append(result, PayLineResponse{
			Kind:                         string(l.Kind),
			Code:                         l.Code,
			Label:                        l.Label,
			Quantity:                     qty,
			Amount:                       l.Amount.StringFixed(moneyPlaces),
			CountsTowardContributionBase: l.CountsTowardContributionBase,
			CountsTowardTaxBase:          l.CountsTowardTaxBase,
		})
	}
	return result
}

type CalculateDraftResponse struct {
	Lines  []PayLineResponse `json:"lines"`
	Rates  RateSet           `json:"rates"`
	Totals TotalsResponse    `json:"totals"`
}

// ========== PAYROLL RECORD DTOs ==========

type GeneratePayrollRequest struct {
	PeriodMonth int      `json:"period_month"`
	PeriodYear  int      `json:"period_year"`
	EmployeeIDs []string `json:"employee_ids,omitempty"` // Empty = all active employees
}

func (r *GeneratePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if !validator.IsValidPeriod(1, r.PeriodYear) {
		errs = append(errs, validator.ValidationError{Field: "period_year", Message: "must be between 2000 and 2100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdatePayrollRecordRequest replaces the record's inputs. Nil Lines keeps the stored lines.
type UpdatePayrollRecordRequest struct {
	ID    string
	Lines []PayLineInput `json:"lines,omitempty"`
	Rates *RateSetInput  `json:"rates,omitempty"`
	Notes *string        `json:"notes,omitempty"`
}

type FinalizePayrollRequest struct {
	RecordIDs []string `json:"record_ids"`
}

func (r *FinalizePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.RecordIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "record_ids", Message: "at least one record is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrollRecordResponse struct {
	ID           string            `json:"id"`
	EmployeeID   string            `json:"employee_id"`
	EmployeeName string            `json:"employee_name"`
	EmployeeCode string            `json:"employee_code"`
	NationalID   *string           `json:"national_id,omitempty"`
	PeriodMonth  int               `json:"period_month"`
	PeriodYear   int               `json:"period_year"`
	Lines        []PayLineResponse `json:"lines"`
	Rates        RateSet           `json:"rates"`
	Totals       TotalsResponse    `json:"totals"`
	Status       string            `json:"status"`
	PaidAt       *string           `json:"paid_at,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
	HasPayslip   bool              `json:"has_payslip"`
}

type PayrollFilter struct {
	PeriodMonth *int    `json:"period_month,omitempty"`
	PeriodYear  *int    `json:"period_year,omitempty"`
	Status      *string `json:"status,omitempty"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
	SortBy      string  `json:"sort_by"`
	SortOrder   string  `json:"sort_order"`
}

type ListPayrollRecordResponse struct {
	Data       []PayrollRecordResponse `json:"data"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
}

type PayrollSummaryResponse struct {
	PeriodMonth          int    `json:"period_month"`
	PeriodYear           int    `json:"period_year"`
	EmployeeCount        int    `json:"employee_count"`
	GrossEarnings        string `json:"gross_earnings"`
	TotalDeductions      string `json:"total_deductions"`
	EmployeeContribution string `json:"employee_contribution"`
	EmployerContribution string `json:"employer_contribution"`
	IncomeTaxWithheld    string `json:"income_tax_withheld"`
	NetPay               string `json:"net_pay"`
	NegativeNetCount     int    `json:"negative_net_count"`
	DraftCount           int    `json:"draft_count"`
	PaidCount            int    `json:"paid_count"`
}

func NewPayrollSummaryResponse(month, year int, s PeriodSummary) PayrollSummaryResponse {
	return PayrollSummaryResponse{
		PeriodMonth:          month,
		PeriodYear:           year,
		EmployeeCount:        s.EmployeeCount,
		GrossEarnings:        s.GrossEarnings.StringFixed(moneyPlaces),
		TotalDeductions:      s.TotalDeductions.StringFixed(moneyPlaces),
		EmployeeContribution: s.EmployeeContribution.StringFixed(moneyPlaces),
		EmployerContribution: s.EmployerContribution.StringFixed(moneyPlaces),
		IncomeTaxWithheld:    s.IncomeTaxWithheld.StringFixed(moneyPlaces),
		NetPay:               s.NetPay.StringFixed(moneyPlaces),
		NegativeNetCount:     s.NegativeNetCount,
	}
}

// ========== DOCUMENT DTOs ==========

type PayslipResponse struct {
	RecordID string `json:"record_id"`
	Path     string `json:"path"`
	URL      string `json:"url"`
}

type TaxReportRequest struct {
	PeriodMonth int
	PeriodYear  int
}

func (r *TaxReportRequest) Validate() error {
	if !validator.IsValidPeriod(r.PeriodMonth, r.PeriodYear) {
		return validator.ValidationErrors{{Field: "period", Message: "period_month must be 1-12 and period_year between 2000 and 2100"}}
	}
	return nil
}
