package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nomina-hr/nomina-backend-go/internal/domain/employee"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/payroll"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/validator"
)

const baseSalaryLabel = "Salario base"

// ========== CALCULATION ==========

func (s *PayrollServiceImpl) CalculateDraft(ctx context.Context, req payroll.CalculateDraftRequest) (payroll.CalculateDraftResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.CalculateDraftResponse{}, err
	}

	lines, err := payroll.ToPayLines(req.Lines)
	if err != nil {
		return payroll.CalculateDraftResponse{}, err
	}

	var emp *employee.Employee
	if req.EmployeeID != nil && *req.EmployeeID != "" {
		found, err := s.employeeRepo.GetByID(ctx, *req.EmployeeID, companyID)
		if err != nil {
			return payroll.CalculateDraftResponse{}, err
		}
		emp = &found
	}

	defaults, err := s.companyRates(ctx, companyID)
	if err != nil {
		return payroll.CalculateDraftResponse{}, err
	}
	rates, err := ResolveRates(defaults, emp, req.Rates)
	if err != nil {
		return payroll.CalculateDraftResponse{}, err
	}

	totals, err := payroll.ComputeTotals(lines, rates)
	if err != nil {
		return payroll.CalculateDraftResponse{}, err
	}

	return payroll.CalculateDraftResponse{
		Lines:  payroll.NewPayLineResponses(lines),
		Rates:  rates,
		Totals: payroll.NewTotalsResponse(totals),
	}, nil
}

// ========== PAYROLL GENERATION ==========

func (s *PayrollServiceImpl) GeneratePayroll(ctx context.Context, req payroll.GeneratePayrollRequest) ([]payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	employees, err := s.employeesToProcess(ctx, companyID, req.EmployeeIDs)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, payroll.ErrNoEmployeesToProcess
	}

	defaults, err := s.companyRates(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var records []payroll.PayrollRecord
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		records = records[:0]
		for _, emp := range employees {
			// Check if record already exists
			_, err := s.payrollRepo.GetPayrollRecordByEmployeePeriod(ctx, emp.ID, req.PeriodMonth, req.PeriodYear, companyID)
			if err == nil {
				continue
			}
			if !errors.Is(err, payroll.ErrPayrollRecordNotFound) {
				return fmt.Errorf("failed to check existing payroll record: %w", err)
			}

			assignments, err := s.payrollRepo.GetEmployeeComponentsForPeriod(ctx, emp.ID, companyID, req.PeriodMonth, req.PeriodYear)
			if err != nil {
				return fmt.Errorf("failed to get components for employee %s: %w", emp.ID, err)
			}

			lines := buildPeriodLines(emp, assignments)
			if len(lines) == 0 {
				slog.InfoContext(ctx, "skipping employee without base salary or components",
					"employee_id", emp.ID, "period_month", req.PeriodMonth, "period_year", req.PeriodYear)
				continue
			}

			rates, err := ResolveRates(defaults, &emp, nil)
			if err != nil {
				return err
			}
			totals, err := payroll.ComputeTotals(lines, rates)
			if err != nil {
				return fmt.Errorf("employee %s: %w", emp.ID, err)
			}

			created, err := s.payrollRepo.CreatePayrollRecord(ctx, payroll.PayrollRecord{
				EmployeeID:  emp.ID,
				CompanyID:   companyID,
				PeriodMonth: req.PeriodMonth,
				PeriodYear:  req.PeriodYear,
				Lines:       lines,
				Rates:       rates,
				Totals:      totals,
				Status:      payroll.PayrollStatusDraft,
			})
			if err != nil {
				if errors.Is(err, payroll.ErrPayrollRecordAlreadyExists) {
					continue
				}
				return fmt.Errorf("failed to create payroll record for employee %s: %w", emp.ID, err)
			}
			records = append(records, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(records) > 0 {
		s.invalidateSummary(ctx, companyID, req.PeriodYear, req.PeriodMonth)
	}

	return mapToRecordResponses(records), nil
}

// employeesToProcess returns the active employees to generate payroll for. An empty
// ids list means every active employee of the company.
func (s *PayrollServiceImpl) employeesToProcess(ctx context.Context, companyID string, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		employees, err := s.employeeRepo.GetActiveByCompanyID(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to get employees: %w", err)
		}
		return employees, nil
	}

	found, err := s.employeeRepo.GetByIDs(ctx, ids, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}

	employees := make([]employee.Employee, 0, len(found))
	for _, emp := range found {
		if !emp.IsActive() {
			slog.InfoContext(ctx, "skipping inactive employee", "employee_id", emp.ID, "status", emp.EmploymentStatus)
			continue
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

// buildPeriodLines turns the contractual base salary and the assigned components
// into engine lines, base salary first.
func buildPeriodLines(emp employee.Employee, assignments []payroll.EmployeePayrollComponent) []payroll.PayLine {
	lines := make([]payroll.PayLine, 0, len(assignments)+1)
	if emp.BaseSalary != nil && emp.BaseSalary.IsPositive() {
		lines = append(lines, payroll.NewEarning(payroll.BaseSalaryCode, baseSalaryLabel, *emp.BaseSalary))
	}
	for _, a := range assignments {
		if line, ok := a.PayLine(); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// ========== RECORDS ==========

func (s *PayrollServiceImpl) GetPayrollRecord(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := s.payrollRepo.GetPayrollRecordByID(ctx, id, companyID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	return mapToRecordResponse(record), nil
}

func (s *PayrollServiceImpl) ListPayrollRecords(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}

	if filter.Status != nil && !validator.IsInSlice(*filter.Status, []string{string(payroll.PayrollStatusDraft), string(payroll.PayrollStatusPaid)}) {
		return payroll.ListPayrollRecordResponse{}, validator.ValidationErrors{{Field: "status", Message: "must be 'draft' or 'paid'"}}
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	records, total, err := s.payrollRepo.ListPayrollRecords(ctx, companyID, filter)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}

	return payroll.ListPayrollRecordResponse{
		Data:       mapToRecordResponses(records),
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// UpdatePayrollRecord replaces the inputs of a draft record and recomputes its totals.
func (s *PayrollServiceImpl) UpdatePayrollRecord(ctx context.Context, req payroll.UpdatePayrollRecordRequest) (payroll.PayrollRecordResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := s.payrollRepo.GetPayrollRecordByID(ctx, req.ID, companyID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if record.Status == payroll.PayrollStatusPaid {
		return payroll.PayrollRecordResponse{}, payroll.ErrPayrollRecordAlreadyPaid
	}

	if req.Lines != nil {
		if record.Lines, err = payroll.ToPayLines(req.Lines); err != nil {
			return payroll.PayrollRecordResponse{}, err
		}
	}
	if record.Rates, err = req.Rates.Overlay(record.Rates); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	if record.Totals, err = payroll.ComputeTotals(record.Lines, record.Rates); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	if err := s.payrollRepo.UpdatePayrollRecord(ctx, record); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	s.invalidateSummary(ctx, companyID, record.PeriodYear, record.PeriodMonth)

	return mapToRecordResponse(record), nil
}

// FinalizePayroll marks draft records as paid. Records already paid are left untouched.
func (s *PayrollServiceImpl) FinalizePayroll(ctx context.Context, req payroll.FinalizePayrollRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	type period struct{ year, month int }
	periods := make(map[period]struct{})

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, id := range req.RecordIDs {
			record, err := s.payrollRepo.GetPayrollRecordByID(ctx, id, companyID)
			if err != nil {
				return err
			}
			periods[period{record.PeriodYear, record.PeriodMonth}] = struct{}{}
		}
		return s.payrollRepo.FinalizePayrollRecords(ctx, req.RecordIDs, userID, companyID)
	})
	if err != nil {
		return err
	}

	for p := range periods {
		s.invalidateSummary(ctx, companyID, p.year, p.month)
	}
	return nil
}

func (s *PayrollServiceImpl) DeletePayrollRecord(ctx context.Context, id string) error {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	record, err := s.payrollRepo.GetPayrollRecordByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if record.Status == payroll.PayrollStatusPaid {
		return payroll.ErrCannotDeletePaidRecord
	}

	if err := s.payrollRepo.DeletePayrollRecord(ctx, id, companyID); err != nil {
		return err
	}
	s.invalidateSummary(ctx, companyID, record.PeriodYear, record.PeriodMonth)
	return nil
}

// ========== SUMMARY ==========

func (s *PayrollServiceImpl) GetPayrollSummary(ctx context.Context, month, year int) (payroll.PayrollSummaryResponse, error) {
	if !validator.IsValidPeriod(month, year) {
		return payroll.PayrollSummaryResponse{}, validator.ValidationErrors{
			{Field: "period", Message: "period_month must be 1-12 and period_year between 2000 and 2100"},
		}
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, err
	}

	var cached payroll.PayrollSummaryResponse
	found, err := s.summaryCache.Get(ctx, companyID, year, month, &cached)
	if err != nil {
		slog.WarnContext(ctx, "payroll summary cache read failed", "company_id", companyID, "error", err)
	} else if found {
		return cached, nil
	}

	records, err := s.payrollRepo.ListPeriodRecords(ctx, companyID, month, year)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, err
	}

	totals := make([]payroll.PayrollTotals, 0, len(records))
	draft, paid := 0, 0
	for _, r := range records {
		totals = append(totals, r.Totals)
		if r.Status == payroll.PayrollStatusPaid {
			paid++
		} else {
			draft++
		}
	}

	summary, err := payroll.AggregatePeriod(totals)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, err
	}

	resp := payroll.NewPayrollSummaryResponse(month, year, summary)
	resp.DraftCount = draft
	resp.PaidCount = paid

	if err := s.summaryCache.Set(ctx, companyID, year, month, resp); err != nil {
		slog.WarnContext(ctx, "payroll summary cache write failed", "company_id", companyID, "error", err)
	}

	return resp, nil
}

func (s *PayrollServiceImpl) invalidateSummary(ctx context.Context, companyID string, year, month int) {
	if err := s.summaryCache.Invalidate(ctx, companyID, year, month); err != nil {
		slog.WarnContext(ctx, "payroll summary cache invalidation failed",
			"company_id", companyID, "period_year", year, "period_month", month, "error", err)
	}
}
