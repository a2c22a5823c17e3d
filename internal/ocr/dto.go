package ocr

// ExtractResponse mirrors the wire shape of POST /api/ocr/extract.
// Recognition failures are reported in-band with Success=false.
type ExtractResponse struct {
	Success       bool         `json:"success"`
	ExtractedText string       `json:"extracted_text"`
	ParsedData    ParsedFields `json:"parsed_data"`
	Error         string       `json:"error,omitempty"`
}
