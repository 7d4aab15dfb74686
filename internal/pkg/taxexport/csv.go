package taxexport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Row is one employee's withholding data for the period.
type Row struct {
	NationalID           string
	EmployeeCode         string
	EmployeeName         string
	GrossEarnings        decimal.Decimal
	TaxBase              decimal.Decimal
	IncomeTaxWithheld    decimal.Decimal
	ContributionBase     decimal.Decimal
	EmployeeContribution decimal.Decimal
	EmployerContribution decimal.Decimal
	NetPay               decimal.Decimal
}

// Report is a full withholding report. Totals is written as the last row; TaxBase
// and ContributionBase of Totals are summed from the rows.
type Report struct {
	PeriodMonth int
	PeriodYear  int
	Rows        []Row
	Totals      Row
}

var header = []string{
	"periodo", "nif", "codigo", "nombre",
	"devengado", "base_irpf", "retencion_irpf",
	"base_cotizacion", "cotizacion_trabajador", "cotizacion_empresa", "liquido",
}

// Amount formats d with two decimals and a decimal comma.
func Amount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// WriteCSV writes the report as ';' separated CSV.
func WriteCSV(w io.Writer, report Report) error {
	buf := bufio.NewWriter(w)
	writer := csv.NewWriter(buf)
	writer.Comma = ';'
	writer.UseCRLF = true

	period := fmt.Sprintf("%04d-%02d", report.PeriodYear, report.PeriodMonth)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("taxexport: write header: %w", err)
	}
	for i, row := range report.Rows {
		if err := writer.Write(record(period, row)); err != nil {
			return fmt.Errorf("taxexport: write row %d: %w", i, err)
		}
	}

	totals := report.Totals
	totals.NationalID = ""
	totals.EmployeeCode = ""
	totals.EmployeeName = "TOTAL"
	if err := writer.Write(record(period, totals)); err != nil {
		return fmt.Errorf("taxexport: write totals: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("taxexport: flush: %w", err)
	}
	return buf.Flush()
}

func record(period string, row Row) []string {
	return []string{
		period,
		row.NationalID,
		row.EmployeeCode,
		row.EmployeeName,
		Amount(row.GrossEarnings),
		Amount(row.TaxBase),
		Amount(row.IncomeTaxWithheld),
		Amount(row.ContributionBase),
		Amount(row.EmployeeContribution),
		Amount(row.EmployerContribution),
		Amount(row.NetPay),
	}
}

// FileName is the suggested download name for a report.
func FileName(month, year int) string {
	return fmt.Sprintf("retenciones-irpf-%04d-%02d.csv", year, month)
}
