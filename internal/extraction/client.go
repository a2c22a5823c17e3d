package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"registration-portal/internal/intake"
	"registration-portal/internal/shared/telemetry"
)

// Record holds the candidate field values recognized from an ID image.
// Empty strings mean the recognizer found nothing for that field.
type Record struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
	IDNumber    string `json:"id_number"`
	IDType      string `json:"id_type"`
}

// Outcome is the resolved result of one extraction call. Extraction never
// fails past this boundary: transport and service errors both land here
// as Success=false with a user-facing message.
type Outcome struct {
	Success bool
	Record  Record
	Err     string
}

// AsMap renders the record in the wire shape expected by the
// registration submission's extracted_data field.
func (r Record) AsMap() map[string]any {
	return map[string]any{
		"full_name":     r.FullName,
		"date_of_birth": r.DateOfBirth,
		"address":       r.Address,
		"id_number":     r.IDNumber,
		"id_type":       r.IDType,
	}
}

// Client calls the portal's OCR extraction endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client against the given portal base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type extractResponse struct {
	Success    bool   `json:"success"`
	ParsedData Record `json:"parsed_data"`
	Error      string `json:"error"`
}

// Extract uploads the document payload and resolves to an Outcome.
func (c *Client) Extract(ctx context.Context, doc *intake.UploadedDocument) Outcome {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", doc.FileName)
	if err != nil {
		return failure("could not prepare the upload", err)
	}
	if _, err := part.Write(doc.Payload); err != nil {
		return failure("could not prepare the upload", err)
	}
	if err := writer.Close(); err != nil {
		return failure("could not prepare the upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ocr/extract", body)
	if err != nil {
		return failure("could not prepare the upload", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failure("could not reach the extraction service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure("could not read the extraction response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return failure(fmt.Sprintf("extraction service returned status %d", resp.StatusCode), nil)
	}

	var decoded extractResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return failure("could not decode the extraction response", err)
	}
	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = "extraction failed"
		}
		return Outcome{Success: false, Err: msg}
	}

	return Outcome{Success: true, Record: decoded.ParsedData}
}

func failure(msg string, err error) Outcome {
	fields := map[string]any{"msg": msg}
	if err != nil {
		fields["err"] = err.Error()
	}
	telemetry.Warn("extraction.failed", fields)
	return Outcome{Success: false, Err: msg}
}
