package payroll

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// InputError describes a rejected engine input. It matches ErrInvalidInput with errors.Is.
type InputError struct {
	Field   string
	Message string
}

func newInputError(field, message string) *InputError {
	return &InputError{Field: field, Message: message}
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput.Error(), e.Field, e.Message)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Inputs outside this range are rejected before any arithmetic: rounding a value such as
// 1e99999999 materializes its full big.Int.
const (
	maxIntegerDigits  = 15
	maxFractionDigits = 12
)

// magnitudeProblem inspects only the exponent and digit count, never the expanded value.
func magnitudeProblem(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	exp := int64(d.Exponent())
	if exp < -maxFractionDigits {
		return fmt.Sprintf("must have at most %d decimal places", maxFractionDigits)
	}
	if int64(d.NumDigits())+exp > maxIntegerDigits {
		return fmt.Sprintf("must have at most %d integer digits", maxIntegerDigits)
	}
	return ""
}

func checkMagnitude(field string, d decimal.Decimal) error {
	if msg := magnitudeProblem(d); msg != "" {
		return newInputError(field, msg)
	}
	return nil
}

// ValidateLines checks every line before anything is summed.
func ValidateLines(lines []PayLine) error {
	for i, line := range lines {
		if !line.Kind.IsValid() {
			return newInputError(fmt.Sprintf("lines[%d].kind", i), "must be 'earning' or 'deduction'")
		}
		if err := checkMagnitude(fmt.Sprintf("lines[%d].amount", i), line.Amount); err != nil {
			return err
		}
		if line.Quantity != nil {
			if err := checkMagnitude(fmt.Sprintf("lines[%d].quantity", i), *line.Quantity); err != nil {
				return err
			}
		}
		if line.Amount.IsNegative() {
			return newInputError(fmt.Sprintf("lines[%d].amount", i), "must be non-negative")
		}
	}
	return nil
}

// Validate rejects negative percentages. Values above 100 are accepted.
func (r RateSet) Validate() error {
	rates := []struct {
		field string
		value decimal.Decimal
	}{
		{"income_tax_withholding_pct", r.IncomeTaxWithholdingPct},
		{"employee_contribution_pct", r.EmployeeContributionPct},
		{"employer_contribution_pct", r.EmployerContributionPct},
	}
	for _, rate := range rates {
		if err := checkMagnitude(rate.field, rate.value); err != nil {
			return err
		}
		if rate.value.IsNegative() {
			return newInputError(rate.field, "must be non-negative")
		}
	}
	return nil
}

// ParseAmount coerces a loosely typed value (JSON number, string, float, integer or
// decimal) into a non-negative decimal.
func ParseAmount(field string, v any) (decimal.Decimal, error) {
	d, err := coerceDecimal(field, v)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, newInputError(field, "must be non-negative")
	}
	return d, nil
}

// ParsePercent is ParseAmount for percentages.
func ParsePercent(field string, v any) (decimal.Decimal, error) {
	return ParseAmount(field, v)
}

func coerceDecimal(field string, v any) (decimal.Decimal, error) {
	d, err := toDecimal(field, v)
	if err != nil {
		return decimal.Zero, err
	}
	if err := checkMagnitude(field, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func toDecimal(field string, v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, newInputError(field, "is required")
	case decimal.Decimal:
		return t, nil
	case *decimal.Decimal:
		if t == nil {
			return decimal.Zero, newInputError(field, "is required")
		}
		return *t, nil
	case json.Number:
		return parseDecimalString(field, t.String())
	case string:
		return parseDecimalString(field, t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, newInputError(field, "must be a finite number")
		}
		return decimal.NewFromFloat(t), nil
	case float32:
		f := float64(t)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, newInputError(field, "must be a finite number")
		}
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	default:
		return decimal.Zero, newInputError(field, fmt.Sprintf("must be numeric, got %T", v))
	}
}

func parseDecimalString(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, newInputError(field, "is required")
	}
	// "1400,50" is accepted as a decimal comma when no dot is present.
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "nan") || strings.Contains(lower, "inf") {
		return decimal.Zero, newInputError(field, "must be a finite number")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, newInputError(field, "must be numeric")
	}
	return d, nil
}

// PayLineInput is the loosely typed shape of a pay line as received from clients.
// Missing base flags default to true.
type PayLineInput struct {
	Kind                         string `json:"kind"`
	Code                         string `json:"code"`
	Label                        string `json:"label"`
	Quantity                     any    `json:"quantity,omitempty"`
	Amount                       any    `json:"amount"`
	CountsTowardContributionBase *bool  `json:"counts_toward_contribution_base,omitempty"`
	CountsTowardTaxBase          *bool  `json:"counts_toward_tax_base,omitempty"`
}

// ToPayLine normalizes the input into a PayLine; index is used in error fields.
func (in PayLineInput) ToPayLine(index int) (PayLine, error) {
	prefix := fmt.Sprintf("lines[%d]", index)

	kind := Kind(strings.ToLower(strings.TrimSpace(in.Kind)))
	if !kind.IsValid() {
		return PayLine{}, newInputError(prefix+".kind", "must be 'earning' or 'deduction'")
	}

	amount, err := ParseAmount(prefix+".amount", in.Amount)
	if err != nil {
		return PayLine{}, err
	}

	line := PayLine{
		Kind:                         kind,
		Code:                         strings.TrimSpace(in.Code),
		Label:                        strings.TrimSpace(in.Label),
		Amount:                       amount,
		CountsTowardContributionBase: true,
		CountsTowardTaxBase:          true,
	}
	if in.Quantity != nil {
		q, err := coerceDecimal(prefix+".quantity", in.Quantity)
		if err != nil {
			return PayLine{}, err
		}
		line.Quantity = &q
	}
	if in.CountsTowardContributionBase != nil {
		line.CountsTowardContributionBase = *in.CountsTowardContributionBase
	}
	if in.CountsTowardTaxBase != nil {
		line.CountsTowardTaxBase = *in.CountsTowardTaxBase
	}
	return line, nil
}

// ToPayLines converts a list of inputs, stopping at the first invalid one.
func ToPayLines(inputs []PayLineInput) ([]PayLine, error) {
	lines := make([]PayLine, 0, len(inputs))
	for i, in := range inputs {
		line, err := in.ToPayLine(i)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// RateSetInput carries optional rate overrides. Nil fields keep the base value.
type RateSetInput struct {
	IncomeTaxWithholdingPct any `json:"income_tax_withholding_pct,omitempty"`
	EmployeeContributionPct any `json:"employee_contribution_pct,omitempty"`
	EmployerContributionPct any `json:"employer_contribution_pct,omitempty"`
}

// IsEmpty reports whether no override is set.
func (in *RateSetInput) IsEmpty() bool {
	return in == nil || (in.IncomeTaxWithholdingPct == nil && in.EmployeeContributionPct == nil && in.EmployerContributionPct == nil)
}

// Overlay applies the set fields of in on top of base.
func (in *RateSetInput) Overlay(base RateSet) (RateSet, error) {
	if in == nil {
		return base, nil
	}
	out := base
	var err error
	if in.IncomeTaxWithholdingPct != nil {
		if out.IncomeTaxWithholdingPct, err = ParsePercent("rates.income_tax_withholding_pct", in.IncomeTaxWithholdingPct); err != nil {
			return RateSet{}, err
		}
	}
	if in.EmployeeContributionPct != nil {
		if out.EmployeeContributionPct, err = ParsePercent("rates.employee_contribution_pct", in.EmployeeContributionPct); err != nil {
			return RateSet{}, err
		}
	}
	if in.EmployerContributionPct != nil {
		if out.EmployerContributionPct, err = ParsePercent("rates.employer_contribution_pct", in.EmployerContributionPct); err != nil {
			return RateSet{}, err
		}
	}
	return out, nil
}
