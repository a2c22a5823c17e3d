package intake

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"registration-portal/internal/shared/util"
)

// MaxUploadBytes is the hard cap on accepted document size.
const MaxUploadBytes = 10 * 1024 * 1024

var (
	ErrInvalidType = errors.New("only image files are accepted")
	ErrTooLarge    = errors.New("file size must be under 10MB")
)

// UploadedDocument is a validated ID-card image plus a local preview
// handle. The holder must Release the preview when the document is
// replaced or the workflow resets.
type UploadedDocument struct {
	FileName  string
	MediaType string
	SizeBytes int64
	Payload   []byte
	Preview   *PreviewHandle
}

// PreviewHandle points at a temp-file copy of the image for local
// display. Release is idempotent.
type PreviewHandle struct {
	path string

	mu       sync.Mutex
	released bool
}

// Path returns the preview file location.
func (p *PreviewHandle) Path() string {
	return p.path
}

// Release removes the preview file. Safe to call more than once.
func (p *PreviewHandle) Release() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true
	_ = os.Remove(p.path)
}

// Accept validates a selected file and produces an UploadedDocument with
// an allocated preview handle. Validation failures happen before any
// allocation, so rejected uploads leave nothing to release.
func Accept(fileName, mediaType string, size int64, r io.Reader) (*UploadedDocument, error) {
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, ErrInvalidType
	}
	if size > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	// LimitReader guards against a declared size smaller than the stream.
	payload, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(payload) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	preview, err := allocatePreview(fileName, payload)
	if err != nil {
		return nil, err
	}

	return &UploadedDocument{
		FileName:  fileName,
		MediaType: mediaType,
		SizeBytes: int64(len(payload)),
		Payload:   payload,
		Preview:   preview,
	}, nil
}

func allocatePreview(fileName string, payload []byte) (*PreviewHandle, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		sanitized = "upload"
	}

	f, err := os.CreateTemp("", "preview-*-"+sanitized)
	if err != nil {
		return nil, fmt.Errorf("allocate preview: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write preview: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("close preview: %w", err)
	}

	return &PreviewHandle{path: f.Name()}, nil
}
