package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies a pay line. The kind alone decides whether the amount adds to or
// subtracts from the totals.
type Kind string

const (
	KindEarning   Kind = "earning"
	KindDeduction Kind = "deduction"
)

func (k Kind) IsValid() bool {
	return k == KindEarning || k == KindDeduction
}

// PayLine is one earning or deduction entry of an employee's pay period.
// Amount is always a non-negative magnitude.
type PayLine struct {
	Kind                         Kind             `json:"kind"`
	Code                         string           `json:"code"`
	Label                        string           `json:"label"`
	Quantity                     *decimal.Decimal `json:"quantity,omitempty"`
	Amount                       decimal.Decimal  `json:"amount"`
	CountsTowardContributionBase bool             `json:"counts_toward_contribution_base"`
	CountsTowardTaxBase          bool             `json:"counts_toward_tax_base"`
}

// NewEarning returns an earning line that counts toward both bases.
func NewEarning(code, label string, amount decimal.Decimal) PayLine {
	return PayLine{
		Kind:                         KindEarning,
		Code:                         code,
		Label:                        label,
		Amount:                       amount,
		CountsTowardContributionBase: true,
		CountsTowardTaxBase:          true,
	}
}

// NewDeduction returns a manual deduction line.
func NewDeduction(code, label string, amount decimal.Decimal) PayLine {
	return PayLine{
		Kind:                         KindDeduction,
		Code:                         code,
		Label:                        label,
		Amount:                       amount,
		CountsTowardContributionBase: true,
		CountsTowardTaxBase:          true,
	}
}

// RateSet holds the percentages applied to one computation.
type RateSet struct {
	IncomeTaxWithholdingPct decimal.Decimal `json:"income_tax_withholding_pct"`
	EmployeeContributionPct decimal.Decimal `json:"employee_contribution_pct"`
	EmployerContributionPct decimal.Decimal `json:"employer_contribution_pct"`
}

// PayrollTotals is the result of ComputeTotals. Every field is rounded to cents.
type PayrollTotals struct {
	GrossEarnings        decimal.Decimal `json:"gross_earnings"`
	ManualDeductions     decimal.Decimal `json:"manual_deductions"`
	ContributionBase     decimal.Decimal `json:"contribution_base"`
	TaxBase              decimal.Decimal `json:"tax_base"`
	EmployeeContribution decimal.Decimal `json:"employee_contribution"`
	EmployerContribution decimal.Decimal `json:"employer_contribution"`
	IncomeTaxWithheld    decimal.Decimal `json:"income_tax_withheld"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`
	NetPay               decimal.Decimal `json:"net_pay"`
}

// PeriodSummary aggregates the totals of every employee in a payroll period.
type PeriodSummary struct {
	EmployeeCount        int             `json:"employee_count"`
	GrossEarnings        decimal.Decimal `json:"gross_earnings"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`
	EmployeeContribution decimal.Decimal `json:"employee_contribution"`
	EmployerContribution decimal.Decimal `json:"employer_contribution"`
	IncomeTaxWithheld    decimal.Decimal `json:"income_tax_withheld"`
	NetPay               decimal.Decimal `json:"net_pay"`
	NegativeNetCount     int             `json:"negative_net_count"`
}

const moneyPlaces = 2

// Round2 rounds a monetary value to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// percentOf returns base * pct / 100 without any rounding.
func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Shift(-2)
}

// ComputeTotals turns a set of pay lines and a rate set into payroll totals.
// Input is validated before any arithmetic; on error no totals are returned.
func ComputeTotals(lines []PayLine, rates RateSet) (PayrollTotals, error) {
	if err := ValidateLines(lines); err != nil {
		return PayrollTotals{}, err
	}
	if err := rates.Validate(); err != nil {
		return PayrollTotals{}, err
	}

	gross := decimal.Zero
	manual := decimal.Zero
	contributionBase := decimal.Zero
	taxBase := decimal.Zero

	// Lines are summed in input order so rounding is reproducible.
	for _, line := range lines {
		switch line.Kind {
		case KindEarning:
			gross = gross.Add(line.Amount)
			if line.CountsTowardContributionBase {
				contributionBase = contributionBase.Add(line.Amount)
			}
			if line.CountsTowardTaxBase {
				taxBase = taxBase.Add(line.Amount)
			}
		case KindDeduction:
			// Base flags are ignored on deductions.
			manual = manual.Add(line.Amount)
		}
	}

	employeeContribution := Round2(percentOf(contributionBase, rates.EmployeeContributionPct))
	employerContribution := Round2(percentOf(contributionBase, rates.EmployerContributionPct))
	withheld := Round2(percentOf(taxBase, rates.IncomeTaxWithholdingPct))

	deductions := manual.Add(employeeContribution).Add(withheld)

	return PayrollTotals{
		GrossEarnings:        Round2(gross),
		ManualDeductions:     Round2(manual),
		ContributionBase:     Round2(contributionBase),
		TaxBase:              Round2(taxBase),
		EmployeeContribution: employeeContribution,
		EmployerContribution: employerContribution,
		IncomeTaxWithheld:    withheld,
		TotalDeductions:      Round2(deductions),
		NetPay:               Round2(gross.Sub(deductions)),
	}, nil
}

// AggregatePeriod sums per-employee totals into a period summary.
func AggregatePeriod(perEmployee []PayrollTotals) (PeriodSummary, error) {
	summary := PeriodSummary{
		GrossEarnings:        decimal.Zero,
		TotalDeductions:      decimal.Zero,
		EmployeeContribution: decimal.Zero,
		EmployerContribution: decimal.Zero,
		IncomeTaxWithheld:    decimal.Zero,
		NetPay:               decimal.Zero,
	}

	for i, t := range perEmployee {
		if err := t.validate(); err != nil {
			return PeriodSummary{}, fmt.Errorf("totals[%d]: %w", i, err)
		}
	}

	for _, t := range perEmployee {
		summary.EmployeeCount++
		summary.GrossEarnings = summary.GrossEarnings.Add(t.GrossEarnings)
		summary.TotalDeductions = summary.TotalDeductions.Add(t.TotalDeductions)
		summary.EmployeeContribution = summary.EmployeeContribution.Add(t.EmployeeContribution)
		summary.EmployerContribution = summary.EmployerContribution.Add(t.EmployerContribution)
		summary.IncomeTaxWithheld = summary.IncomeTaxWithheld.Add(t.IncomeTaxWithheld)
		summary.NetPay = summary.NetPay.Add(t.NetPay)
		if t.NetPay.IsNegative() {
			summary.NegativeNetCount++
		}
	}

	return summary, nil
}

func (t PayrollTotals) validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"gross_earnings", t.GrossEarnings},
		{"manual_deductions", t.ManualDeductions},
		{"contribution_base", t.ContributionBase},
		{"tax_base", t.TaxBase},
		{"employee_contribution", t.EmployeeContribution},
		{"employer_contribution", t.EmployerContribution},
		{"income_tax_withheld", t.IncomeTaxWithheld},
	}
	for _, f := range fields {
		if err := checkMagnitude(f.name, f.value); err != nil {
			return err
		}
		if f.value.IsNegative() {
			return newInputError(f.name, "must be non-negative")
		}
	}
	if err := checkMagnitude("total_deductions", t.TotalDeductions); err != nil {
		return err
	}
	return checkMagnitude("net_pay", t.NetPay)
}
