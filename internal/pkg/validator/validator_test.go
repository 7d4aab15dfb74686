package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidNIF(t *testing.T) {
	valid := []string{
		"12345678Z",  // DNI
		"00000000T",  // DNI with leading zeros
		"x1234567l",  // NIE, lower case
		"Y0000000Z",  // NIE starting with Y
		" 12345678Z", // surrounding spaces
	}
	invalid := []string{
		"12345678A", // wrong control letter
		"1234567Z",  // too short
		"A1234567L", // unknown NIE prefix
		"",
	}
	for _, nif := range valid {
		if !IsValidNIF(nif) {
			t.Errorf("IsValidNIF(%q) = false, want true", nif)
		}
	}
	for _, nif := range invalid {
		if IsValidNIF(nif) {
			t.Errorf("IsValidNIF(%q) = true, want false", nif)
		}
	}
}

func TestIsValidComponentCode(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"SALARIO_BASE", true},
		{"PLUS2", true},
		{"plus_transporte", false},
		{"A", false},
		{"CON ESPACIO", false},
	}
	for _, c := range cases {
		if got := IsValidComponentCode(c.input); got != c.want {
			t.Errorf("IsValidComponentCode(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidPeriod(t *testing.T) {
	cases := []struct {
		month, year int
		want        bool
	}{
		{1, 2025, true},
		{12, 2025, true},
		{0, 2025, false},
		{13, 2025, false},
		{6, 1999, false},
	}
	for _, c := range cases {
		if got := IsValidPeriod(c.month, c.year); got != c.want {
			t.Errorf("IsValidPeriod(%d, %d) = %v, want %v", c.month, c.year, got, c.want)
		}
	}
}

func TestStruct(t *testing.T) {
	type request struct {
		Name string `json:"name" validate:"required,max=5"`
		Kind string `json:"kind" validate:"oneof=earning deduction"`
	}

	if errs := Struct(request{Name: "ok", Kind: "earning"}); errs != nil {
		t.Fatalf("Struct(valid) = %v, want nil", errs)
	}

	errs := Struct(request{Name: "", Kind: "bonus"})
	if len(errs) != 2 {
		t.Fatalf("Struct(invalid) returned %d errors, want 2: %v", len(errs), errs)
	}
	m := errs.ToMap()
	if m["name"] != "is required" {
		t.Errorf("name message = %q, want %q", m["name"], "is required")
	}
	if m["kind"] != "must be one of: earning deduction" {
		t.Errorf("kind message = %q", m["kind"])
	}
}

func TestValidationErrorsError(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	if got, want := errs.Error(), "a: bad; b: worse"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
