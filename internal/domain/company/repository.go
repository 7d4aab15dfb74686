package company

import "context"

// CompanyRepository reads the tenant data printed on payroll documents.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (Company, error)
}
