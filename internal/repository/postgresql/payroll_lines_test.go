package postgresql

import (
	"testing"

	"github.com/nomina-hr/nomina-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStoredLines_CurrentShape(t *testing.T) {
	data := []byte(`[
		{"kind":"earning","code":"SALARIO_BASE","label":"Salario base","amount":"1400","counts_toward_contribution_base":true,"counts_toward_tax_base":true},
		{"kind":"earning","code":"DIETAS","label":"Dietas","quantity":"3","amount":"90.30","counts_toward_contribution_base":false,"counts_toward_tax_base":true},
		{"kind":"deduction","code":"ANTICIPO","label":"Anticipo","amount":"100"}
	]`)

	lines, legacy, err := decodeStoredLines(data)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.False(t, legacy)

	assert.Equal(t, payroll.KindEarning, lines[0].Kind)
	assert.True(t, lines[0].CountsTowardTaxBase)

	require.NotNil(t, lines[1].Quantity)
	assert.Equal(t, "3", lines[1].Quantity.String())
	assert.False(t, lines[1].CountsTowardContributionBase)

	assert.Equal(t, payroll.KindDeduction, lines[2].Kind)
	assert.True(t, lines[2].CountsTowardContributionBase)
}

func TestDecodeStoredLines_LegacyShapes(t *testing.T) {
	data := []byte(`[
		{"type":"allowance","name":"Plus transporte","amount":50},
		{"type":"DEDUCTION","name":"Embargo","amount":"-120.25"},
		{"name":"Ajuste","amount":"-10"},
		{"name":"Paga extra","amount":"300"}
	]`)

	lines, legacy, err := decodeStoredLines(data)
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.True(t, legacy)

	assert.Equal(t, payroll.KindEarning, lines[0].Kind)
	assert.Equal(t, "Plus transporte", lines[0].Label)

	assert.Equal(t, payroll.KindDeduction, lines[1].Kind)
	assert.Equal(t, "120.25", lines[1].Amount.StringFixed(2))

	assert.Equal(t, payroll.KindDeduction, lines[2].Kind)
	assert.Equal(t, "10.00", lines[2].Amount.StringFixed(2))

	assert.Equal(t, payroll.KindEarning, lines[3].Kind)

	for i, l := range lines {
		assert.False(t, l.Amount.IsNegative(), "line %d", i)
	}
	assert.NoError(t, payroll.ValidateLines(lines))
}

func TestDecodeStoredLines_Errors(t *testing.T) {
	_, _, err := decodeStoredLines([]byte(`[{"kind":"bonus","amount":"1"}]`))
	assert.Error(t, err)

	_, _, err = decodeStoredLines([]byte(`{not json`))
	assert.Error(t, err)

	lines, legacy, err := decodeStoredLines(nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.False(t, legacy)
}

func legacyRecordRates() payroll.RateSet {
	return payroll.RateSet{
		IncomeTaxWithholdingPct: decimal.RequireFromString("2"),
		EmployeeContributionPct: decimal.RequireFromString("6.35"),
		EmployerContributionPct: decimal.RequireFromString("29.9"),
	}
}

func TestApplyStoredLines_LegacyRecomputesTotals(t *testing.T) {
	// Stored totals from signed amounts: the -100 line was summed into gross.
	rec := payroll.PayrollRecord{
		Rates: legacyRecordRates(),
		Totals: payroll.PayrollTotals{
			GrossEarnings: decimal.RequireFromString("1300"),
			NetPay:        decimal.RequireFromString("1300"),
		},
	}
	data := []byte(`[{"name":"Salario base","amount":"1400"},{"name":"Anticipo","amount":"-100"}]`)

	require.NoError(t, applyStoredLines(&rec, data))

	require.Len(t, rec.Lines, 2)
	assert.Equal(t, "1400.00", rec.Totals.GrossEarnings.StringFixed(2))
	assert.Equal(t, "100.00", rec.Totals.ManualDeductions.StringFixed(2))
	assert.Equal(t, "88.90", rec.Totals.EmployeeContribution.StringFixed(2))
	assert.Equal(t, "28.00", rec.Totals.IncomeTaxWithheld.StringFixed(2))
	assert.Equal(t, "1183.10", rec.Totals.NetPay.StringFixed(2))
}

func TestApplyStoredLines_CurrentShapeKeepsStoredTotals(t *testing.T) {
	stored := payroll.PayrollTotals{
		GrossEarnings: decimal.RequireFromString("1400"),
		NetPay:        decimal.RequireFromString("1283.10"),
	}
	rec := payroll.PayrollRecord{Rates: legacyRecordRates(), Totals: stored}
	data := []byte(`[{"kind":"earning","code":"SALARIO_BASE","label":"Salario base","amount":"1400"}]`)

	require.NoError(t, applyStoredLines(&rec, data))

	assert.Equal(t, stored, rec.Totals)
}
