package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	playground "github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

var (
	structValidator     *playground.Validate
	structValidatorOnce sync.Once
)

func getStructValidator() *playground.Validate {
	structValidatorOnce.Do(func() {
		v := playground.New()
		// Report fields by their JSON names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		structValidator = v
	})
	return structValidator
}

// Struct runs the `validate` struct tags of s and converts failures into ValidationErrors.
// It returns nil (not an empty slice) when s is valid.
func Struct(s interface{}) ValidationErrors {
	err := getStructValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{Field: fe.Field(), Message: tagMessage(fe)})
	}
	return errs
}

func tagMessage(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "dive":
		return "contains an invalid item"
	default:
		return "is invalid"
	}
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

var componentCodeRegex = regexp.MustCompile(`^[A-Z0-9_]{2,32}$`)

// IsValidComponentCode accepts upper-case codes such as PLUS_TRANSPORTE.
func IsValidComponentCode(code string) bool {
	return componentCodeRegex.MatchString(code)
}

const nifLetters = "TRWAGMYFPDXBNJZSQVHLCKE"

var (
	dniRegex = regexp.MustCompile(`^[0-9]{8}[A-Z]$`)
	nieRegex = regexp.MustCompile(`^[XYZ][0-9]{7}[A-Z]$`)
)

// IsValidNIF validates a Spanish DNI or NIE including its control letter.
func IsValidNIF(nif string) bool {
	nif = strings.ToUpper(strings.TrimSpace(nif))
	switch {
	case dniRegex.MatchString(nif):
	case nieRegex.MatchString(nif):
		nif = strings.NewReplacer("X", "0", "Y", "1", "Z", "2").Replace(nif[:1]) + nif[1:]
	default:
		return false
	}

	number := 0
	for _, c := range nif[:8] {
		number = number*10 + int(c-'0')
	}
	return nif[8] == nifLetters[number%23]
}

// IsValidPeriod reports whether month/year name a payroll period.
func IsValidPeriod(month, year int) bool {
	return month >= 1 && month <= 12 && year >= 2000 && year <= 2100
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
