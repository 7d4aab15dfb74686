package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/company"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/employee"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/payroll"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/cache"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/payslip"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/storage"
	"github.com/nomina-hr/nomina-backend-go/internal/pkg/validator"
)

const dateLayout = "2006-01-02"

// TxManager runs fn in a database transaction carried by the context.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type PayrollServiceImpl struct {
	txManager    TxManager
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	companyRepo  company.CompanyRepository
	summaryCache *cache.SummaryCache
	fileStorage  storage.FileStorage
	renderer     *payslip.Renderer
	now          func() time.Time
}

// NewPayrollService wires the payroll service. summaryCache and fileStorage may be nil:
// summaries are then always computed and payslip generation is rejected.
func NewPayrollService(
	txManager TxManager,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	companyRepo company.CompanyRepository,
	summaryCache *cache.SummaryCache,
	fileStorage storage.FileStorage,
	renderer *payslip.Renderer,
) payroll.PayrollService {
	if renderer == nil {
		renderer = payslip.NewRenderer()
	}
	return &PayrollServiceImpl{
		txManager:    txManager,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		companyRepo:  companyRepo,
		summaryCache: summaryCache,
		fileStorage:  fileStorage,
		renderer:     renderer,
		now:          time.Now,
	}
}

// Helper to get company_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", payroll.ErrCompanyClaimMissing
	}

	userID, _ = claims["user_id"].(string)

	return companyID, userID, nil
}

// ========== SETTINGS ==========

func (s *PayrollServiceImpl) GetRateSettings(ctx context.Context) (payroll.RateSettingsResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RateSettingsResponse{}, err
	}

	settings, err := s.payrollRepo.GetRateSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrRateSettingsNotFound) {
			// Nothing stored yet: every rate is zero
			return payroll.RateSettingsResponse{CompanyID: companyID}, nil
		}
		return payroll.RateSettingsResponse{}, err
	}

	return mapToRateSettingsResponse(settings), nil
}

func (s *PayrollServiceImpl) UpdateRateSettings(ctx context.Context, req payroll.UpdateRateSettingsRequest) (payroll.RateSettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RateSettingsResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RateSettingsResponse{}, err
	}

	current, err := s.payrollRepo.GetRateSettings(ctx, companyID)
	if err != nil && !errors.Is(err, payroll.ErrRateSettingsNotFound) {
		return payroll.RateSettingsResponse{}, err
	}
	current.CompanyID = companyID

	// Apply updates
	if req.IncomeTaxWithholdingPct != nil {
		current.IncomeTaxWithholdingPct = *req.IncomeTaxWithholdingPct
	}
	if req.EmployeeContributionPct != nil {
		current.EmployeeContributionPct = *req.EmployeeContributionPct
	}
	if req.EmployerContributionPct != nil {
		current.EmployerContributionPct = *req.EmployerContributionPct
	}

	updated, err := s.payrollRepo.UpsertRateSettings(ctx, current)
	if err != nil {
		return payroll.RateSettingsResponse{}, err
	}

	return mapToRateSettingsResponse(updated), nil
}

// ========== COMPONENTS ==========

func (s *PayrollServiceImpl) CreateComponent(ctx context.Context, req payroll.CreatePayrollComponentRequest) (payroll.PayrollComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	component := payroll.PayrollComponent{
		CompanyID:                    companyID,
		Code:                         req.Code,
		Name:                         req.Name,
		Kind:                         payroll.Kind(req.Kind),
		Description:                  req.Description,
		CountsTowardContributionBase: true,
		CountsTowardTaxBase:          true,
		IsActive:                     true,
	}
	if req.CountsTowardContributionBase != nil {
		component.CountsTowardContributionBase = *req.CountsTowardContributionBase
	}
	if req.CountsTowardTaxBase != nil {
		component.CountsTowardTaxBase = *req.CountsTowardTaxBase
	}

	created, err := s.payrollRepo.CreateComponent(ctx, component)
	if err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	return mapToComponentResponse(created), nil
}

func (s *PayrollServiceImpl) GetComponent(ctx context.Context, id string) (payroll.PayrollComponentResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	component, err := s.payrollRepo.GetComponentByID(ctx, id, companyID)
	if err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	return mapToComponentResponse(component), nil
}

func (s *PayrollServiceImpl) GetComponents(ctx context.Context, activeOnly bool) ([]payroll.PayrollComponentResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	components, err := s.payrollRepo.GetComponentsByCompanyID(ctx, companyID, activeOnly)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.PayrollComponentResponse, 0, len(components))
	for _, c := range components {
		result = append(result, mapToComponentResponse(c))
	}
	return result, nil
}

func (s *PayrollServiceImpl) UpdateComponent(ctx context.Context, req payroll.UpdatePayrollComponentRequest) (payroll.PayrollComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	if err := s.payrollRepo.UpdateComponent(ctx, companyID, req); err != nil {
		return payroll.PayrollComponentResponse{}, err
	}

	return s.GetComponent(ctx, req.ID)
}

func (s *PayrollServiceImpl) DeleteComponent(ctx context.Context, id string) error {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.payrollRepo.DeleteComponent(ctx, id, companyID)
}

// ========== EMPLOYEE COMPONENTS ==========

func (s *PayrollServiceImpl) AssignComponent(ctx context.Context, req payroll.AssignComponentRequest) (payroll.EmployeeComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}

	now := s.now().UTC()
	effectiveDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.EffectiveDate != nil {
		effectiveDate, _ = validator.IsValidDate(*req.EffectiveDate)
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, _ := validator.IsValidDate(*req.EndDate)
		if parsed.Before(effectiveDate) {
			return payroll.EmployeeComponentResponse{}, validator.ValidationErrors{
				{Field: "end_date", Message: "must not be before effective_date"},
			}
		}
		endDate = &parsed
	}

	assignment := payroll.EmployeePayrollComponent{
		EmployeeID:         req.EmployeeID,
		PayrollComponentID: req.PayrollComponentID,
		Quantity:           req.Quantity,
		Amount:             req.Amount,
		EffectiveDate:      effectiveDate,
		EndDate:            endDate,
	}

	created, err := s.payrollRepo.AssignComponentToEmployee(ctx, assignment, companyID)
	if err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}

	return mapToEmployeeComponentResponse(created), nil
}

func (s *PayrollServiceImpl) GetEmployeeComponents(ctx context.Context, employeeID string) ([]payroll.EmployeeComponentResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	assignments, err := s.payrollRepo.GetEmployeeComponents(ctx, employeeID, companyID, false)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.EmployeeComponentResponse, 0, len(assignments))
	for _, a := range assignments {
		result = append(result, mapToEmployeeComponentResponse(a))
	}
	return result, nil
}

func (s *PayrollServiceImpl) UpdateEmployeeComponent(ctx context.Context, req payroll.UpdateEmployeeComponentRequest) (payroll.EmployeeComponentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}

	if err := s.payrollRepo.UpdateEmployeeComponent(ctx, companyID, req); err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}

	updated, err := s.payrollRepo.GetEmployeeComponentByID(ctx, req.ID, companyID)
	if err != nil {
		return payroll.EmployeeComponentResponse{}, err
	}
	return mapToEmployeeComponentResponse(updated), nil
}

func (s *PayrollServiceImpl) RemoveEmployeeComponent(ctx context.Context, id string) error {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.payrollRepo.RemoveEmployeeComponent(ctx, id, companyID)
}

// ========== MAPPERS ==========

func mapToRateSettingsResponse(s payroll.RateSettings) payroll.RateSettingsResponse {
	return payroll.RateSettingsResponse{
		ID:                      s.ID,
		CompanyID:               s.CompanyID,
		IncomeTaxWithholdingPct: s.IncomeTaxWithholdingPct,
		EmployeeContributionPct: s.EmployeeContributionPct,
		EmployerContributionPct: s.EmployerContributionPct,
	}
}

func mapToComponentResponse(c payroll.PayrollComponent) payroll.PayrollComponentResponse {
	return payroll.PayrollComponentResponse{
		ID:                           c.ID,
		CompanyID:                    c.CompanyID,
		Code:                         c.Code,
		Name:                         c.Name,
		Kind:                         string(c.Kind),
		Description:                  c.Description,
		CountsTowardContributionBase: c.CountsTowardContributionBase,
		CountsTowardTaxBase:          c.CountsTowardTaxBase,
		IsActive:                     c.IsActive,
	}
}

func mapToEmployeeComponentResponse(a payroll.EmployeePayrollComponent) payroll.EmployeeComponentResponse {
	resp := payroll.EmployeeComponentResponse{
		ID:                 a.ID,
		EmployeeID:         a.EmployeeID,
		PayrollComponentID: a.PayrollComponentID,
		Quantity:           a.Quantity,
		Amount:             a.Amount,
		EffectiveDate:      a.EffectiveDate.Format(dateLayout),
	}
	if a.ComponentCode != nil {
		resp.ComponentCode = *a.ComponentCode
	}
	if a.ComponentName != nil {
		resp.ComponentName = *a.ComponentName
	}
	if a.ComponentKind != nil {
		resp.ComponentKind = string(*a.ComponentKind)
	}
	if a.EndDate != nil {
		str := a.EndDate.Format(dateLayout)
		resp.EndDate = &str
	}
	return resp
}

func mapToRecordResponse(r payroll.PayrollRecord) payroll.PayrollRecordResponse {
	resp := payroll.PayrollRecordResponse{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		NationalID:  r.NationalID,
		PeriodMonth: r.PeriodMonth,
		PeriodYear:  r.PeriodYear,
		Lines:       payroll.NewPayLineResponses(r.Lines),
		Rates:       r.Rates,
		Totals:      payroll.NewTotalsResponse(r.Totals),
		Status:      string(r.Status),
		Notes:       r.Notes,
		HasPayslip:  r.PayslipPath != nil && *r.PayslipPath != "",
	}
	if r.EmployeeName != nil {
		resp.EmployeeName = *r.EmployeeName
	}
	if r.EmployeeCode != nil {
		resp.EmployeeCode = *r.EmployeeCode
	}
	if r.PaidAt != nil {
		str := r.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &str
	}
	return resp
}

func mapToRecordResponses(records []payroll.PayrollRecord) []payroll.PayrollRecordResponse {
	result := make([]payroll.PayrollRecordResponse, 0, len(records))
	for _, r := range records {
		result = append(result, mapToRecordResponse(r))
	}
	return result
}
