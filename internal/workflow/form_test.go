package workflow

import (
	"testing"

	"registration-portal/internal/extraction"
)

func TestMergeExtractedWins(t *testing.T) {
	form := NewForm()
	rec := extraction.Record{
		FullName:    "Asha Rao",
		DateOfBirth: "12/03/1960",
		Address:     "12 Lake Rd",
		IDNumber:    "ABCD1234E",
		IDType:      "PAN",
	}

	merged := Merge(form, rec)

	if merged.FullName != "Asha Rao" || merged.DateOfBirth != "12/03/1960" ||
		merged.Address != "12 Lake Rd" || merged.IDNumber != "ABCD1234E" || merged.IDType != "PAN" {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
}

func TestMergeKeepsNonEmptyFormValues(t *testing.T) {
	form := RegistrationForm{
		FullName:    "Typed By User",
		DateOfBirth: "01/01/1950",
		Address:     "Typed Address",
		IDNumber:    "TYPED123",
		IDType:      IDTypeOther,
	}

	merged := Merge(form, extraction.Record{})

	if merged != form {
		t.Fatalf("empty extracted values must not clobber the form: %+v", merged)
	}
}

func TestMergePartialRecord(t *testing.T) {
	form := RegistrationForm{FullName: "Typed By User", IDType: IDTypeAadhaar}
	rec := extraction.Record{DateOfBirth: "12/03/1960"}

	merged := Merge(form, rec)

	if merged.FullName != "Typed By User" {
		t.Fatalf("expected user name kept, got %q", merged.FullName)
	}
	if merged.DateOfBirth != "12/03/1960" {
		t.Fatalf("expected extracted dob applied, got %q", merged.DateOfBirth)
	}
	if merged.IDType != IDTypeAadhaar {
		t.Fatalf("expected default id type kept, got %q", merged.IDType)
	}
}

func TestMergeIdempotent(t *testing.T) {
	form := RegistrationForm{FullName: "Typed By User"}
	rec := extraction.Record{FullName: "Asha Rao", Address: "12 Lake Rd"}

	once := Merge(form, rec)
	twice := Merge(once, rec)

	if once != twice {
		t.Fatalf("merge must be idempotent: %+v vs %+v", once, twice)
	}
}

func TestMissingRequired(t *testing.T) {
	if !NewForm().MissingRequired() {
		t.Fatal("empty form must be missing required fields")
	}

	full := RegistrationForm{
		FullName:    "Asha Rao",
		DateOfBirth: "12/03/1960",
		Address:     "12 Lake Rd",
		IDNumber:    "ABCD1234E",
		IDType:      IDTypePAN,
	}
	if full.MissingRequired() {
		t.Fatal("complete form must pass the required check")
	}

	noAddr := full
	noAddr.Address = ""
	if !noAddr.MissingRequired() {
		t.Fatal("form without address must fail the required check")
	}
}
