package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nomina-hr/nomina-backend-go/internal/domain/company"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/employee"
	"github.com/nomina-hr/nomina-backend-go/internal/domain/payroll"
)

// ===== in-memory repositories =====

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	emp, ok := f.employees[id]
	if !ok || emp.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeEmployeeRepo) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var result []employee.Employee
	for _, emp := range f.employees {
		if emp.CompanyID == companyID && emp.IsActive() {
			result = append(result, emp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeCode < result[j].EmployeeCode })
	return result, nil
}

func (f *fakeEmployeeRepo) GetByIDs(ctx context.Context, ids []string, companyID string) ([]employee.Employee, error) {
	var result []employee.Employee
	for _, id := range ids {
		if emp, ok := f.employees[id]; ok && emp.CompanyID == companyID {
			result = append(result, emp)
		}
	}
	return result, nil
}

type fakeCompanyRepo struct {
	companies map[string]company.Company
}

func (f *fakeCompanyRepo) GetByID(ctx context.Context, id string) (company.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

type fakePayrollRepo struct {
	mu          sync.Mutex
	seq         int
	employees   *fakeEmployeeRepo
	settings    map[string]payroll.RateSettings
	components  map[string]payroll.PayrollComponent
	assignments map[string]payroll.EmployeePayrollComponent
	records     map[string]payroll.PayrollRecord
}

func newFakePayrollRepo(employees *fakeEmployeeRepo) *fakePayrollRepo {
	return &fakePayrollRepo{
		employees:   employees,
		settings:    make(map[string]payroll.RateSettings),
		components:  make(map[string]payroll.PayrollComponent),
		assignments: make(map[string]payroll.EmployeePayrollComponent),
		records:     make(map[string]payroll.PayrollRecord),
	}
}

func (f *fakePayrollRepo) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakePayrollRepo) GetRateSettings(ctx context.Context, companyID string) (payroll.RateSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[companyID]
	if !ok {
		return payroll.RateSettings{}, payroll.ErrRateSettingsNotFound
	}
	return s, nil
}

func (f *fakePayrollRepo) UpsertRateSettings(ctx context.Context, settings payroll.RateSettings) (payroll.RateSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if settings.ID == "" {
		settings.ID = f.nextID("settings")
	}
	f.settings[settings.CompanyID] = settings
	return settings, nil
}

func (f *fakePayrollRepo) CreateComponent(ctx context.Context, component payroll.PayrollComponent) (payroll.PayrollComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.components {
		if c.CompanyID == component.CompanyID && c.Code == component.Code {
			return payroll.PayrollComponent{}, payroll.ErrPayrollComponentCodeExists
		}
	}
	component.ID = f.nextID("component")
	f.components[component.ID] = component
	return component, nil
}

func (f *fakePayrollRepo) GetComponentByID(ctx context.Context, id string, companyID string) (payroll.PayrollComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.components[id]
	if !ok || c.CompanyID != companyID {
		return payroll.PayrollComponent{}, payroll.ErrPayrollComponentNotFound
	}
	return c, nil
}

func (f *fakePayrollRepo) GetComponentsByCompanyID(ctx context.Context, companyID string, activeOnly bool) ([]payroll.PayrollComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []payroll.PayrollComponent
	for _, c := range f.components {
		if c.CompanyID == companyID && (!activeOnly || c.IsActive) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (f *fakePayrollRepo) UpdateComponent(ctx context.Context, companyID string, req payroll.UpdatePayrollComponentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.components[req.ID]
	if !ok || c.CompanyID != companyID {
		return payroll.ErrPayrollComponentNotFound
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.CountsTowardContributionBase != nil {
		c.CountsTowardContributionBase = *req.CountsTowardContributionBase
	}
	if req.CountsTowardTaxBase != nil {
		c.CountsTowardTaxBase = *req.CountsTowardTaxBase
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	f.components[c.ID] = c
	return nil
}

func (f *fakePayrollRepo) DeleteComponent(ctx context.Context, id string, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.components[id]
	if !ok || c.CompanyID != companyID {
		return payroll.ErrPayrollComponentNotFound
	}
	delete(f.components, id)
	return nil
}

func (f *fakePayrollRepo) joinAssignment(a payroll.EmployeePayrollComponent) payroll.EmployeePayrollComponent {
	c := f.components[a.PayrollComponentID]
	a.ComponentCode = &c.Code
	a.ComponentName = &c.Name
	a.ComponentKind = &c.Kind
	a.CountsTowardContributionBase = &c.CountsTowardContributionBase
	a.CountsTowardTaxBase = &c.CountsTowardTaxBase
	return a
}

func (f *fakePayrollRepo) ownsAssignment(a payroll.EmployeePayrollComponent, companyID string) bool {
	emp, ok := f.employees.employees[a.EmployeeID]
	return ok && emp.CompanyID == companyID
}

func (f *fakePayrollRepo) AssignComponentToEmployee(ctx context.Context, assignment payroll.EmployeePayrollComponent, companyID string) (payroll.EmployeePayrollComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ownsAssignment(assignment, companyID) {
		return payroll.EmployeePayrollComponent{}, employee.ErrEmployeeNotFound
	}
	if c, ok := f.components[assignment.PayrollComponentID]; !ok || c.CompanyID != companyID {
		return payroll.EmployeePayrollComponent{}, payroll.ErrPayrollComponentNotFound
	}
	assignment.ID = f.nextID("assignment")
	f.assignments[assignment.ID] = assignment
	return f.joinAssignment(assignment), nil
}

func (f *fakePayrollRepo) GetEmployeeComponents(ctx context.Context, employeeID string, companyID string, activeOnly bool) ([]payroll.EmployeePayrollComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []payroll.EmployeePayrollComponent
	for _, a := range f.assignments {
		if a.EmployeeID == employeeID && f.ownsAssignment(a, companyID) {
			if activeOnly && !f.components[a.PayrollComponentID].IsActive {
				continue
			}
			result = append(result, f.joinAssignment(a))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakePayrollRepo) GetEmployeeComponentsForPeriod(ctx context.Context, employeeID string, companyID string, month, year int) ([]payroll.EmployeePayrollComponent, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	all, err := f.GetEmployeeComponents(ctx, employeeID, companyID, true)
	if err != nil {
		return nil, err
	}
	var result []payroll.EmployeePayrollComponent
	for _, a := range all {
		if a.EffectiveDate.After(end) || (a.EndDate != nil && a.EndDate.Before(start)) {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (f *fakePayrollRepo) GetEmployeeComponentByID(ctx context.Context, id string, companyID string) (payroll.EmployeePayrollComponent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok || !f.ownsAssignment(a, companyID) {
		return payroll.EmployeePayrollComponent{}, payroll.ErrEmployeeComponentNotFound
	}
	return f.joinAssignment(a), nil
}

func (f *fakePayrollRepo) UpdateEmployeeComponent(ctx context.Context, companyID string, req payroll.UpdateEmployeeComponentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[req.ID]
	if !ok || !f.ownsAssignment(a, companyID) {
		return payroll.ErrEmployeeComponentNotFound
	}
	if req.Amount != nil {
		a.Amount = *req.Amount
	}
	if req.Quantity != nil {
		a.Quantity = req.Quantity
	}
	f.assignments[a.ID] = a
	return nil
}

func (f *fakePayrollRepo) RemoveEmployeeComponent(ctx context.Context, id string, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok || !f.ownsAssignment(a, companyID) {
		return payroll.ErrEmployeeComponentNotFound
	}
	delete(f.assignments, id)
	return nil
}

func (f *fakePayrollRepo) joinRecord(r payroll.PayrollRecord) payroll.PayrollRecord {
	if emp, ok := f.employees.employees[r.EmployeeID]; ok {
		name, code := emp.FullName, emp.EmployeeCode
		r.EmployeeName = &name
		r.EmployeeCode = &code
		r.NationalID = emp.NationalID
	}
	return r
}

func (f *fakePayrollRepo) CreatePayrollRecord(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.EmployeeID == record.EmployeeID && r.PeriodMonth == record.PeriodMonth && r.PeriodYear == record.PeriodYear {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordAlreadyExists
		}
	}
	record.ID = f.nextID("record")
	f.records[record.ID] = record
	return f.joinRecord(record), nil
}

func (f *fakePayrollRepo) GetPayrollRecordByID(ctx context.Context, id string, companyID string) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.CompanyID != companyID {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return f.joinRecord(r), nil
}

func (f *fakePayrollRepo) GetPayrollRecordByEmployeePeriod(ctx context.Context, employeeID string, month, year int, companyID string) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.EmployeeID == employeeID && r.PeriodMonth == month && r.PeriodYear == year && r.CompanyID == companyID {
			return f.joinRecord(r), nil
		}
	}
	return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
}

func (f *fakePayrollRepo) ListPayrollRecords(ctx context.Context, companyID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []payroll.PayrollRecord
	for _, r := range f.records {
		if r.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && string(r.Status) != *filter.Status {
			continue
		}
		result = append(result, f.joinRecord(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, int64(len(result)), nil
}

func (f *fakePayrollRepo) ListPeriodRecords(ctx context.Context, companyID string, month, year int) ([]payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []payroll.PayrollRecord
	for _, r := range f.records {
		if r.CompanyID == companyID && r.PeriodMonth == month && r.PeriodYear == year {
			result = append(result, f.joinRecord(r))
		}
	}
	sort.Slice(result, func(i, j int) bool { return *result[i].EmployeeName < *result[j].EmployeeName })
	return result, nil
}

func (f *fakePayrollRepo) UpdatePayrollRecord(ctx context.Context, record payroll.PayrollRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.records[record.ID]
	if !ok || stored.CompanyID != record.CompanyID {
		return payroll.ErrPayrollRecordNotFound
	}
	if stored.Status == payroll.PayrollStatusPaid {
		return payroll.ErrPayrollRecordAlreadyPaid
	}
	stored.Lines = record.Lines
	stored.Rates = record.Rates
	stored.Totals = record.Totals
	stored.Notes = record.Notes
	f.records[record.ID] = stored
	return nil
}

func (f *fakePayrollRepo) SetPayslipPath(ctx context.Context, id string, companyID string, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.CompanyID != companyID {
		return payroll.ErrPayrollRecordNotFound
	}
	r.PayslipPath = &path
	f.records[id] = r
	return nil
}

func (f *fakePayrollRepo) FinalizePayrollRecords(ctx context.Context, ids []string, paidBy string, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	for _, id := range ids {
		r, ok := f.records[id]
		if !ok || r.CompanyID != companyID || r.Status != payroll.PayrollStatusDraft {
			continue
		}
		r.Status = payroll.PayrollStatusPaid
		r.PaidAt = &now
		r.PaidBy = &paidBy
		f.records[id] = r
	}
	return nil
}

func (f *fakePayrollRepo) DeletePayrollRecord(ctx context.Context, id string, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.CompanyID != companyID {
		return payroll.ErrPayrollRecordNotFound
	}
	if r.Status == payroll.PayrollStatusPaid {
		return payroll.ErrCannotDeletePaidRecord
	}
	delete(f.records, id)
	return nil
}
