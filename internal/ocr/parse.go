package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

// ParsedFields holds the structured values recovered from raw ID-card text.
// Empty strings mean the field could not be found.
type ParsedFields struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	IDNumber    string `json:"id_number"`
	IDType      string `json:"id_type"`
	Address     string `json:"address"`
}

var (
	// Aadhaar numbers are 12 digits and never start with 0 or 1.
	aadhaarSpaced  = regexp.MustCompile(`[2-9]\d{3}\s?\d{4}\s?\d{4}`)
	aadhaarCompact = regexp.MustCompile(`[2-9]\d{11}`)
	panPattern     = regexp.MustCompile(`[A-Z]{5}[0-9]{4}[A-Z]`)
	whitespace     = regexp.MustCompile(`\s`)

	dobPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{2}[/-]\d{2}[/-]\d{4})\b`),
		regexp.MustCompile(`\b(\d{4}[/-]\d{2}[/-]\d{2})\b`),
		regexp.MustCompile(`(?i)DOB[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`),
		regexp.MustCompile(`(?i)Birth[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`),
	}
)

// Parse extracts structured registration fields from raw OCR text.
func Parse(fullText string) ParsedFields {
	var parsed ParsedFields

	if aadhaar := extractAadhaarNumber(fullText); aadhaar != "" {
		parsed.IDNumber = aadhaar
		parsed.IDType = "Aadhaar"
	} else if pan := extractPANNumber(fullText); pan != "" {
		parsed.IDNumber = pan
		parsed.IDType = "PAN"
	}

	parsed.DateOfBirth = extractDateOfBirth(fullText)
	parsed.FullName = extractName(fullText)
	parsed.Address = extractAddress(fullText)

	return parsed
}

func extractAadhaarNumber(text string) string {
	for _, pattern := range []*regexp.Regexp{aadhaarSpaced, aadhaarCompact} {
		if match := pattern.FindString(text); match != "" {
			return whitespace.ReplaceAllString(match, "")
		}
	}
	return ""
}

func extractPANNumber(text string) string {
	return panPattern.FindString(strings.ToUpper(text))
}

func extractDateOfBirth(text string) string {
	for _, pattern := range dobPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if len(match) > 1 && match[1] != "" {
			return match[1]
		}
		return match[0]
	}
	return ""
}

// extractName looks for a name/naam keyword line; the value follows a colon
// on the same line or sits on the next line. Falls back to the first of the
// top five lines starting with two capitalized words.
func extractName(text string) string {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "name") && !strings.Contains(lower, "naam") {
			continue
		}
		if idx := strings.Index(line, ":"); idx >= 0 {
			if candidate := strings.TrimSpace(line[idx+1:]); len(candidate) > 2 {
				return candidate
			}
		} else if i+1 < len(lines) {
			if candidate := strings.TrimSpace(lines[i+1]); len(candidate) > 2 {
				return candidate
			}
		}
	}

	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		words := strings.Fields(strings.TrimSpace(line))
		if len(words) >= 2 && startsUpper(words[0]) && startsUpper(words[1]) {
			return strings.TrimSpace(line)
		}
	}

	return ""
}

func startsUpper(word string) bool {
	for _, r := range word {
		return unicode.IsUpper(r)
	}
	return false
}

// extractAddress collects up to three non-empty lines following the first
// line carrying an address/pincode keyword.
func extractAddress(text string) string {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "address") && !strings.Contains(lower, "addr") &&
			!strings.Contains(lower, "pincode") && !strings.Contains(lower, "pin") {
			continue
		}
		var parts []string
		for j := i + 1; j < len(lines) && j < i+4; j++ {
			if trimmed := strings.TrimSpace(lines[j]); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
		return ""
	}

	return ""
}
