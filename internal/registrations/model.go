package registrations

import "time"

// ID types accepted on the registration form.
const (
	IDTypeAadhaar = "Aadhaar"
	IDTypePAN     = "PAN"
	IDTypeOther   = "Other"
)

// Registration is a finalized registration record.
type Registration struct {
	RegistrationID string         `json:"registration_id"`
	FullName       string         `json:"full_name"`
	DateOfBirth    string         `json:"date_of_birth"`
	Age            int            `json:"age"`
	Address        string         `json:"address"`
	IDNumber       string         `json:"id_number"`
	IDType         string         `json:"id_type"`
	ExtractedData  map[string]any `json:"extracted_data,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
