package taxexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestWriteCSV(t *testing.T) {
	report := Report{
		PeriodMonth: 3,
		PeriodYear:  2025,
		Rows: []Row{
			{
				NationalID: "12345678Z", EmployeeCode: "EMP-001", EmployeeName: "Martín; Lucía",
				GrossEarnings: d("1400"), TaxBase: d("1400"), IncomeTaxWithheld: d("28"),
				ContributionBase: d("1400"), EmployeeContribution: d("88.9"), EmployerContribution: d("418.6"),
				NetPay: d("1283.1"),
			},
			{
				NationalID: "X1234567L", EmployeeCode: "EMP-002", EmployeeName: "Nerea Ruiz",
				GrossEarnings: d("1000"), TaxBase: d("1000"), IncomeTaxWithheld: d("1500"),
				ContributionBase: d("1000"), EmployeeContribution: d("63.5"), EmployerContribution: d("299"),
				NetPay: d("-563.5"),
			},
		},
		Totals: Row{
			GrossEarnings: d("2400"), TaxBase: d("2400"), IncomeTaxWithheld: d("1528"),
			ContributionBase: d("2400"), EmployeeContribution: d("152.4"), EmployerContribution: d("717.6"),
			NetPay: d("719.6"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))
	assert.True(t, strings.HasSuffix(buf.String(), "\r\n"))

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"2025-03", "12345678Z", "EMP-001", "Martín; Lucía", "1400,00", "1400,00", "28,00", "1400,00", "88,90", "418,60", "1283,10"}, rows[1])
	assert.Equal(t, "-563,50", rows[2][10])
	assert.Equal(t, []string{"2025-03", "", "", "TOTAL", "2400,00", "2400,00", "1528,00", "2400,00", "152,40", "717,60", "719,60"}, rows[3])
}

func TestWriteCSV_NoRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Report{PeriodMonth: 12, PeriodYear: 2024}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-12;;;TOTAL;0,00;0,00;0,00;0,00;0,00;0,00;0,00", lines[1])
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteCSV_PropagatesWriteErrors(t *testing.T) {
	assert.Error(t, WriteCSV(failingWriter{}, Report{PeriodMonth: 1, PeriodYear: 2025}))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "retenciones-irpf-2025-03.csv", FileName(3, 2025))
}
