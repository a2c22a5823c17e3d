package registrations

// CreateRequest is the submission payload from the kiosk client.
// ExtractedData carries the raw OCR candidates for audit and stays
// untouched by validation.
type CreateRequest struct {
	FullName      string         `json:"full_name"`
	DateOfBirth   string         `json:"date_of_birth"`
	Address       string         `json:"address"`
	IDNumber      string         `json:"id_number"`
	IDType        string         `json:"id_type"`
	ExtractedData map[string]any `json:"extracted_data"`
}
