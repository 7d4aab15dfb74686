package payroll

import (
	"context"
	"errors"

	"github.com/nomina-hr/nomina-backend-go/internal/domain/employee"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/payroll"
)

// ResolveRates picks the rates for one computation. Precedence, highest first:
// the request override, the employee's own IRPF percentage, the company defaults.
func ResolveRates(companyDefaults payroll.RateSet, emp *employee.Employee, override *payroll.RateSetInput) (payroll.RateSet, error) {
	rates := companyDefaults
	if emp != nil && emp.IncomeTaxWithholdingPct != nil {
		rates.IncomeTaxWithholdingPct = *emp.IncomeTaxWithholdingPct
	}
	return override.Overlay(rates)
}

// companyRates returns the stored company defaults, or zero rates when none exist.
func (s *PayrollServiceImpl) companyRates(ctx context.Context, companyID string) (payroll.RateSet, error) {
	settings, err := s.payrollRepo.GetRateSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrRateSettingsNotFound) {
			return payroll.RateSet{}, nil
		}
		return payroll.RateSet{}, err
	}
	return settings.RateSet(), nil
}
