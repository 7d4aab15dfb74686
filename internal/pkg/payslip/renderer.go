package payslip

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Line is one row of the earnings or deductions table.
type Line struct {
	Code     string
	Label    string
	Quantity *decimal.Decimal
	Amount   decimal.Decimal
}

// Document holds everything printed on one payslip. Amounts are already final.
type Document struct {
	CompanyName  string
	CompanyTaxID string
	EmployeeName string
	EmployeeCode string
	NationalID   string
	PeriodMonth  int
	PeriodYear   int

	Earnings         []Line
	ManualDeductions []Line

	ContributionBase        decimal.Decimal
	TaxBase                 decimal.Decimal
	EmployeeContributionPct decimal.Decimal
	EmployeeContribution    decimal.Decimal
	IncomeTaxWithholdingPct decimal.Decimal
	IncomeTaxWithheld       decimal.Decimal
	EmployerContributionPct decimal.Decimal
	EmployerContribution    decimal.Decimal

	GrossEarnings   decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal

	Draft       bool
	GeneratedAt time.Time
}

// Renderer draws payslips as A4 PDFs with Spanish number formatting.
type Renderer struct {
	printer *message.Printer
}

func NewRenderer() *Renderer {
	return &Renderer{printer: message.NewPrinter(language.Spanish)}
}

// FormatMoney renders d as "1.283,10 €".
func (r *Renderer) FormatMoney(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return r.printer.Sprintf("%v €", number.Decimal(f, number.Scale(2)))
}

// FormatPercent renders p as "6,35 %".
func (r *Renderer) FormatPercent(p decimal.Decimal) string {
	f, _ := p.Float64()
	return r.printer.Sprintf("%v %%", number.Decimal(f, number.MinFractionDigits(0), number.MaxFractionDigits(4)))
}

func PeriodLabel(month, year int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("%02d/%d", month, year)
	}
	return fmt.Sprintf("%s de %d", monthNames[month-1], year)
}

func (r *Renderer) Render(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(fmt.Sprintf("Nómina %s - %s", doc.EmployeeName, PeriodLabel(doc.PeriodMonth, doc.PeriodYear))), false)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Recibo de salarios"))
	pdf.Ln(10)
	if doc.Draft {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(200, 0, 0)
		pdf.Cell(0, 6, "BORRADOR")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(6)
	}

	pdf.SetFont("Helvetica", "", 11)
	header := [][2]string{
		{"Empresa", doc.CompanyName},
		{"CIF", doc.CompanyTaxID},
		{"Trabajador", doc.EmployeeName},
		{"Código", doc.EmployeeCode},
		{"NIF", doc.NationalID},
		{"Periodo", PeriodLabel(doc.PeriodMonth, doc.PeriodYear)},
	}
	for _, h := range header {
		if h[1] == "" {
			continue
		}
		pdf.CellFormat(35, 7, tr(h[0]+":"), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, tr(h[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Earnings
	r.table(pdf, tr, "Devengos", doc.Earnings)
	r.totalRow(pdf, tr, "Total devengado", doc.GrossEarnings)
	pdf.Ln(4)

	// Deductions
	deductions := append([]Line{}, doc.ManualDeductions...)
	deductions = append(deductions,
		Line{Label: fmt.Sprintf("Cotización trabajador (%s)", r.FormatPercent(doc.EmployeeContributionPct)), Amount: doc.EmployeeContribution},
		Line{Label: fmt.Sprintf("Retención IRPF (%s)", r.FormatPercent(doc.IncomeTaxWithholdingPct)), Amount: doc.IncomeTaxWithheld},
	)
	r.table(pdf, tr, "Deducciones", deductions)
	r.totalRow(pdf, tr, "Total a deducir", doc.TotalDeductions)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(140, 9, tr("Líquido a percibir"), "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, tr(r.FormatMoney(doc.NetPay)), "T", 1, "R", false, 0, "")
	pdf.Ln(8)

	// Employer contribution is informational and never affects the net pay.
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf(
		"Base de cotización: %s. Base de IRPF: %s. Aportación empresarial (%s): %s.",
		r.FormatMoney(doc.ContributionBase), r.FormatMoney(doc.TaxBase),
		r.FormatPercent(doc.EmployerContributionPct), r.FormatMoney(doc.EmployerContribution),
	)), "", "L", false)

	if !doc.GeneratedAt.IsZero() {
		pdf.Ln(2)
		pdf.Cell(0, 5, tr("Generado el "+doc.GeneratedAt.Format("02/01/2006 15:04")))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("payslip: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) table(pdf *gofpdf.Fpdf, tr func(string) string, title string, lines []Line) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(110, 7, tr(title), "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, tr("Cantidad"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(0, 7, tr("Importe"), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		qty := ""
		if l.Quantity != nil {
			qty = l.Quantity.String()
		}
		pdf.CellFormat(110, 6, tr(l.Label), "LR", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, qty, "LR", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, tr(r.FormatMoney(l.Amount)), "LR", 1, "R", false, 0, "")
	}
}

func (r *Renderer) totalRow(pdf *gofpdf.Fpdf, tr func(string) string, label string, amount decimal.Decimal) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(140, 7, tr(label), "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(r.FormatMoney(amount)), "1", 1, "R", false, 0, "")
}
