package payroll

import (
	"context"
	"io"
	"log/slog"

	"github.com/nomina-hr/nomina-backend-go/internal/domain/payroll"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/taxexport"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ExportTaxReport writes the period's withholding report as CSV: one row per payroll
// record and a totals row built from AggregatePeriod.
func (s *PayrollServiceImpl) ExportTaxReport(ctx context.Context, req payroll.TaxReportRequest, w io.Writer) error {
	if err := req.Validate(); err != nil {
		return err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	records, err := s.payrollRepo.ListPeriodRecords(ctx, companyID, req.PeriodMonth, req.PeriodYear)
	if err != nil {
		return err
	}

	report := taxexport.Report{
		PeriodMonth: req.PeriodMonth,
		PeriodYear:  req.PeriodYear,
		Rows:        make([]taxexport.Row, 0, len(records)),
	}
	totals := make([]payroll.PayrollTotals, 0, len(records))
	taxBase, contributionBase := decimal.Zero, decimal.Zero

	for _, r := range records {
		row := taxexport.Row{
			GrossEarnings:        r.Totals.GrossEarnings,
			TaxBase:              r.Totals.TaxBase,
			IncomeTaxWithheld:    r.Totals.IncomeTaxWithheld,
			ContributionBase:     r.Totals.ContributionBase,
			EmployeeContribution: r.Totals.EmployeeContribution,
			EmployerContribution: r.Totals.EmployerContribution,
			NetPay:               r.Totals.NetPay,
		}
		if r.NationalID != nil {
			row.NationalID = *r.NationalID
		}
		if !validator.IsValidNIF(row.NationalID) {
			slog.WarnContext(ctx, "tax report row without a valid NIF", "record_id", r.ID, "employee_id", r.EmployeeID)
		}
		if r.EmployeeCode != nil {
			row.EmployeeCode = *r.EmployeeCode
		}
		if r.EmployeeName != nil {
			row.EmployeeName = *r.EmployeeName
		}
		report.Rows = append(report.Rows, row)

		totals = append(totals, r.Totals)
		taxBase = taxBase.Add(r.Totals.TaxBase)
		contributionBase = contributionBase.Add(r.Totals.ContributionBase)
	}

	summary, err := payroll.AggregatePeriod(totals)
	if err != nil {
		return err
	}
	report.Totals = taxexport.Row{
		GrossEarnings:        summary.GrossEarnings,
		TaxBase:              taxBase,
		IncomeTaxWithheld:    summary.IncomeTaxWithheld,
		ContributionBase:     contributionBase,
		EmployeeContribution: summary.EmployeeContribution,
		EmployerContribution: summary.EmployerContribution,
		NetPay:               summary.NetPay,
	}

	return taxexport.WriteCSV(w, report)
}
