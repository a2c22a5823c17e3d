package vision

import (
	"context"
	"errors"
)

// TextRecognizer turns an ID-card image into raw detected text.
type TextRecognizer interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// ErrNotConfigured is returned when no recognizer credentials are present.
var ErrNotConfigured = errors.New("vision API not configured")

// Unconfigured is the recognizer used when no credentials are supplied.
type Unconfigured struct{}

// DetectText always fails with ErrNotConfigured.
func (Unconfigured) DetectText(ctx context.Context, image []byte) (string, error) {
	_ = ctx
	_ = image
	return "", ErrNotConfigured
}
