package workflow

import "registration-portal/internal/extraction"

// ID types offered on the form.
const (
	IDTypeAadhaar = "Aadhaar"
	IDTypePAN     = "PAN"
	IDTypeOther   = "Other"
)

// RegistrationForm is the editable record and the single source of truth
// submitted to the portal.
type RegistrationForm struct {
	FullName    string
	DateOfBirth string
	Address     string
	IDNumber    string
	IDType      string
}

// NewForm returns an empty form with the default ID type.
func NewForm() RegistrationForm {
	return RegistrationForm{IDType: IDTypeAadhaar}
}

// MissingRequired reports whether any required field is still empty.
// IDType always carries a default and is not checked.
func (f RegistrationForm) MissingRequired() bool {
	return f.FullName == "" || f.DateOfBirth == "" || f.Address == "" || f.IDNumber == ""
}

// Merge folds extracted candidate values into the form. A non-empty
// extracted value replaces the form's value; an empty one never clobbers
// what is already there. Merging the same record twice is a no-op.
func Merge(form RegistrationForm, rec extraction.Record) RegistrationForm {
	if rec.FullName != "" {
		form.FullName = rec.FullName
	}
	if rec.DateOfBirth != "" {
		form.DateOfBirth = rec.DateOfBirth
	}
	if rec.Address != "" {
		form.Address = rec.Address
	}
	if rec.IDNumber != "" {
		form.IDNumber = rec.IDNumber
	}
	if rec.IDType != "" {
		form.IDType = rec.IDType
	}
	return form
}
