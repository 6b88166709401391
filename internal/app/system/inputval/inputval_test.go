package inputval

import (
	"strings"
	"testing"
)

func TestValidate_Required(t *testing.T) {
	type input struct {
		Name string `validate:"required" label:"Name"`
	}

	res := Validate(input{Name: ""})
	if !res.HasErrors() {
		t.Fatal("expected error for empty required field")
	}
	if res.First() != "Name is required." {
		t.Errorf("First() = %q", res.First())
	}

	res = Validate(input{Name: "   "})
	if !res.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}

	res = Validate(input{Name: "ok"})
	if res.HasErrors() {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}

func TestValidate_MaxMin(t *testing.T) {
	type input struct {
		Name string `validate:"required,max=10" label:"Name"`
		Code string `validate:"min=3" label:"Code"`
	}

	res := Validate(input{Name: strings.Repeat("x", 11), Code: "abcd"})
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", res.Errors)
	}
	if res.First() != "Name must be at most 10 characters." {
		t.Errorf("First() = %q", res.First())
	}

	// min does not fire on empty optional fields
	res = Validate(input{Name: "ok", Code: ""})
	if res.HasErrors() {
		t.Errorf("unexpected errors: %v", res.Errors)
	}

	res = Validate(input{Name: "ok", Code: "ab"})
	if res.First() != "Code must be at least 3 characters." {
		t.Errorf("First() = %q", res.First())
	}
}

func TestValidate_Email(t *testing.T) {
	type input struct {
		Email string `validate:"required,email" label:"Email"`
	}

	if res := Validate(input{Email: "user@example.com"}); res.HasErrors() {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
	if res := Validate(input{Email: "not-an-email"}); !res.HasErrors() {
		t.Error("expected error for malformed email")
	}
}

func TestValidate_OneMessagePerField(t *testing.T) {
	type input struct {
		Email string `validate:"required,email,max=5" label:"Email"`
	}

	// Fails email and max; only the first failing rule reports.
	res := Validate(input{Email: "abcdefgh"})
	if len(res.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", res.Errors)
	}
}

func TestValidate_NonStruct(t *testing.T) {
	if res := Validate("not a struct"); res.HasErrors() {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}
