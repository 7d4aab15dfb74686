package payslip

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	qty := decimal.RequireFromString("3")
	doc := Document{
		CompanyName:  "Talleres Norte SL",
		EmployeeName: "Lucía Martín",
		EmployeeCode: "EMP-001",
		NationalID:   "12345678Z",
		PeriodMonth:  3,
		PeriodYear:   2025,
		Earnings: []Line{
			{Code: "SALARIO_BASE", Label: "Salario base", Amount: decimal.RequireFromString("1200")},
			{Code: "DIETAS", Label: "Dietas", Quantity: &qty, Amount: decimal.RequireFromString("200")},
		},
		ManualDeductions: []Line{
			{Code: "ANTICIPO", Label: "Anticipo", Amount: decimal.RequireFromString("100")},
		},
		ContributionBase:        decimal.RequireFromString("1400"),
		TaxBase:                 decimal.RequireFromString("1400"),
		EmployeeContributionPct: decimal.RequireFromString("6.35"),
		EmployeeContribution:    decimal.RequireFromString("88.90"),
		IncomeTaxWithholdingPct: decimal.RequireFromString("2"),
		IncomeTaxWithheld:       decimal.RequireFromString("28.00"),
		EmployerContributionPct: decimal.RequireFromString("29.9"),
		EmployerContribution:    decimal.RequireFromString("418.60"),
		GrossEarnings:           decimal.RequireFromString("1400.00"),
		TotalDeductions:         decimal.RequireFromString("216.90"),
		NetPay:                  decimal.RequireFromString("1183.10"),
		Draft:                   true,
		GeneratedAt:             time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC),
	}

	out, err := NewRenderer().Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 500)
}

func TestRender_EmptyDocument(t *testing.T) {
	out, err := NewRenderer().Render(Document{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestFormatMoney(t *testing.T) {
	r := NewRenderer()

	assert.Equal(t, "88,90 €", r.FormatMoney(decimal.RequireFromString("88.9")))
	assert.Equal(t, "0,00 €", r.FormatMoney(decimal.Zero))
	assert.Contains(t, r.FormatMoney(decimal.RequireFromString("12830.5")), "830,50 €")
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "marzo de 2025", PeriodLabel(3, 2025))
	assert.Equal(t, "diciembre de 2024", PeriodLabel(12, 2024))
	assert.Equal(t, "13/2024", PeriodLabel(13, 2024))
}
