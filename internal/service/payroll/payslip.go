package payroll

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nomina-hr/nomina-backend-go/internal/domain/company"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/payroll"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/payslip"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/storage"
	"golang.org/x/sync/errgroup"
)

const payslipURLExpiry = 24 * time.Hour

// GeneratePayslip renders the record's PDF, stores it and returns its URL. A previously
// stored payslip for the same record is replaced.
func (s *PayrollServiceImpl) GeneratePayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	if s.fileStorage == nil {
		return payroll.PayslipResponse{}, payroll.ErrPayslipStorageNotConfigured
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	var (
		record  payroll.PayrollRecord
		tenant  company.Company
		g, gctx = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		var err error
		record, err = s.payrollRepo.GetPayrollRecordByID(gctx, id, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		tenant, err = s.companyRepo.GetByID(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return payroll.PayslipResponse{}, err
	}

	pdf, err := s.renderer.Render(buildPayslipDocument(tenant, record, s.now()))
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	employeeCode := record.EmployeeID
	if record.EmployeeCode != nil && *record.EmployeeCode != "" {
		employeeCode = *record.EmployeeCode
	}
	key := storage.PayslipKey(companyID, record.PeriodYear, record.PeriodMonth, employeeCode)

	path, err := s.fileStorage.Upload(ctx, bytes.NewReader(pdf), key, "application/pdf")
	if err != nil {
		return payroll.PayslipResponse{}, fmt.Errorf("failed to store payslip: %w", err)
	}
	if err := s.payrollRepo.SetPayslipPath(ctx, record.ID, companyID, path); err != nil {
		return payroll.PayslipResponse{}, err
	}

	if record.PayslipPath != nil && *record.PayslipPath != "" && *record.PayslipPath != path {
		if err := s.fileStorage.Delete(ctx, *record.PayslipPath); err != nil {
			slog.WarnContext(ctx, "failed to delete previous payslip", "record_id", record.ID, "path", *record.PayslipPath, "error", err)
		}
	}

	url, err := s.fileStorage.GetURL(ctx, path, payslipURLExpiry)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	slog.InfoContext(ctx, "payslip generated", "record_id", record.ID, "path", path)

	return payroll.PayslipResponse{RecordID: record.ID, Path: path, URL: url}, nil
}

func buildPayslipDocument(tenant company.Company, record payroll.PayrollRecord, generatedAt time.Time) payslip.Document {
	doc := payslip.Document{
		CompanyName: tenant.Name,
		PeriodMonth: record.PeriodMonth,
		PeriodYear:  record.PeriodYear,

		ContributionBase:        record.Totals.ContributionBase,
		TaxBase:                 record.Totals.TaxBase,
		EmployeeContributionPct: record.Rates.EmployeeContributionPct,
		EmployeeContribution:    record.Totals.EmployeeContribution,
		IncomeTaxWithholdingPct: record.Rates.IncomeTaxWithholdingPct,
		IncomeTaxWithheld:       record.Totals.IncomeTaxWithheld,
		EmployerContributionPct: record.Rates.EmployerContributionPct,
		EmployerContribution:    record.Totals.EmployerContribution,

		GrossEarnings:   record.Totals.GrossEarnings,
		TotalDeductions: record.Totals.TotalDeductions,
		NetPay:          record.Totals.NetPay,

		Draft:       record.Status != payroll.PayrollStatusPaid,
		GeneratedAt: generatedAt,
	}
	if tenant.TaxID != nil {
		doc.CompanyTaxID = *tenant.TaxID
	}
	if record.EmployeeName != nil {
		doc.EmployeeName = *record.EmployeeName
	}
	if record.EmployeeCode != nil {
		doc.EmployeeCode = *record.EmployeeCode
	}
	if record.NationalID != nil {
		doc.NationalID = *record.NationalID
	}

	for _, l := range record.Lines {
		line := payslip.Line{Code: l.Code, Label: l.Label, Quantity: l.Quantity, Amount: l.Amount}
		if line.Label == "" {
			line.Label = l.Code
		}
		if l.Kind == payroll.KindDeduction {
			doc.ManualDeductions = append(doc.ManualDeductions, line)
		} else {
			doc.Earnings = append(doc.Earnings, line)
		}
	}
	return doc
}
