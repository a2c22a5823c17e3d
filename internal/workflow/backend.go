package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// agePhrase marks the backend's age-eligibility rejection; details
// carrying it are routed into the age error display instead of a
// generic notification.
const agePhrase = "Age must be"

// Result is the terminal outcome of a successful submission.
type Result struct {
	RegistrationID string
}

// SubmitError is a backend rejection with its detail message.
type SubmitError struct {
	StatusCode int
	Detail     string
}

func (e *SubmitError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("registration failed with status %d", e.StatusCode)
}

// IsAgeRejection reports whether the backend rejected for age eligibility.
func (e *SubmitError) IsAgeRejection() bool {
	return strings.Contains(e.Detail, agePhrase)
}

// SubmitClient posts finalized registrations to the portal.
type SubmitClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSubmitClient constructs a SubmitClient against the portal base URL.
func NewSubmitClient(baseURL string, timeout time.Duration) *SubmitClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SubmitClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	FullName      string         `json:"full_name"`
	DateOfBirth   string         `json:"date_of_birth"`
	Address       string         `json:"address"`
	IDNumber      string         `json:"id_number"`
	IDType        string         `json:"id_type"`
	ExtractedData map[string]any `json:"extracted_data"`
}

type submitResponse struct {
	RegistrationID string `json:"registration_id"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// Submit sends the form and returns the issued registration id, or a
// *SubmitError describing the rejection.
func (c *SubmitClient) Submit(ctx context.Context, form RegistrationForm, extracted map[string]any) (Result, error) {
	payload := submitRequest{
		FullName:      form.FullName,
		DateOfBirth:   form.DateOfBirth,
		Address:       form.Address,
		IDNumber:      form.IDNumber,
		IDType:        form.IDType,
		ExtractedData: extracted,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/registration", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build submission: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("submit registration: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read submission response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var detail detailResponse
		_ = json.Unmarshal(raw, &detail)
		return Result{}, &SubmitError{StatusCode: resp.StatusCode, Detail: detail.Detail}
	}

	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode submission response: %w", err)
	}
	if decoded.RegistrationID == "" {
		return Result{}, fmt.Errorf("submission response missing registration_id")
	}

	return Result{RegistrationID: decoded.RegistrationID}, nil
}
