package workflow

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"
	"sync"
	"time"

	"registration-portal/internal/eligibility"
	"registration-portal/internal/extraction"
	"registration-portal/internal/intake"
	"registration-portal/internal/shared/telemetry"
)

// State is the workflow's current phase.
type State int

const (
	StateIdle State = iota
	StateExtracting
	StateEditable
	StateSubmitting
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateEditable:
		return "editable"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy rejects an action while an extraction or submission is
	// outstanding, or before a successful run was reset.
	ErrBusy = errors.New("another operation is in progress")
	// ErrMissingFields blocks submission while required fields are empty.
	ErrMissingFields = errors.New("please fill all required fields")
	// ErrBelowMinimumAge blocks submission client-side for a positively
	// computed under-age date of birth.
	ErrBelowMinimumAge = errors.New("age is below the registration minimum")
)

// AgeError is the field-scoped validation error shown on date_of_birth.
type AgeError struct {
	Message string
	Age     int
	HasAge  bool
}

// NotifyFunc receives transient user-facing notifications. Level is one
// of "info", "warn", "error", "success".
type NotifyFunc func(level, message string)

// Extractor resolves an uploaded document to an extraction outcome.
type Extractor interface {
	Extract(ctx context.Context, doc *intake.UploadedDocument) extraction.Outcome
}

// Submitter posts a finalized form to the portal.
type Submitter interface {
	Submit(ctx context.Context, form RegistrationForm, extracted map[string]any) (Result, error)
}

// Workflow drives one registration from empty form to issued id. It owns
// the uploaded document, the form, the age error and the result; nothing
// else mutates them. A generation counter makes async resolutions for a
// reset instance harmless: they compare generations and drop themselves.
type Workflow struct {
	extractor  Extractor
	backend    Submitter
	notify     NotifyFunc
	successTTL time.Duration
	now        func() time.Time
	spawn      func(func())

	mu         sync.Mutex
	state      State
	gen        uint64
	doc        *intake.UploadedDocument
	extracted  *extraction.Record
	form       RegistrationForm
	ageErr     *AgeError
	result     *Result
	resetTimer *time.Timer
}

// Option tweaks workflow construction.
type Option func(*Workflow)

// WithNotifier installs a notification sink.
func WithNotifier(fn NotifyFunc) Option {
	return func(w *Workflow) { w.notify = fn }
}

// WithSuccessTTL overrides the delay before an automatic reset out of
// the success state.
func WithSuccessTTL(d time.Duration) Option {
	return func(w *Workflow) { w.successTTL = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// withSpawn overrides how async work runs; tests run it inline.
func withSpawn(spawn func(func())) Option {
	return func(w *Workflow) { w.spawn = spawn }
}

// New constructs an idle workflow instance.
func New(extractor Extractor, backend Submitter, opts ...Option) *Workflow {
	w := &Workflow{
		extractor:  extractor,
		backend:    backend,
		successTTL: 5 * time.Second,
		now:        func() time.Time { return time.Now().UTC() },
		spawn:      func(f func()) { go f() },
		notify: func(level, message string) {
			telemetry.Info("workflow.notice", map[string]any{"level": level, "message": message})
		},
		state: StateIdle,
		form:  NewForm(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Form returns a copy of the current form.
func (w *Workflow) Form() RegistrationForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// AgeError returns the current date_of_birth validation error, if any.
func (w *Workflow) AgeError() *AgeError {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ageErr == nil {
		return nil
	}
	cp := *w.ageErr
	return &cp
}

// Result returns the registration result once the workflow succeeded.
func (w *Workflow) Result() *Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return nil
	}
	cp := *w.result
	return &cp
}

// Accept validates a selected file and starts extraction. Allowed from
// the idle and editable states; any previously held preview handle is
// released before the replacement is allocated.
func (w *Workflow) Accept(ctx context.Context, fileName, mediaType string, size int64, r io.Reader) error {
	w.mu.Lock()
	if w.state != StateIdle && w.state != StateEditable {
		w.mu.Unlock()
		return ErrBusy
	}
	w.mu.Unlock()

	// Validation happens outside the lock; rejected files allocate
	// nothing and change no state.
	doc, err := intake.Accept(fileName, mediaType, size, r)
	if err != nil {
		switch {
		case errors.Is(err, intake.ErrInvalidType), errors.Is(err, intake.ErrTooLarge):
			w.notify("error", err.Error())
		default:
			w.notify("error", "could not read the selected file")
		}
		return err
	}

	w.mu.Lock()
	if w.state != StateIdle && w.state != StateEditable {
		w.mu.Unlock()
		doc.Preview.Release()
		return ErrBusy
	}
	if w.doc != nil {
		w.doc.Preview.Release()
	}
	w.doc = doc
	w.ageErr = nil
	w.extracted = nil
	w.state = StateExtracting
	gen := w.gen
	w.mu.Unlock()

	w.spawn(func() {
		outcome := w.extractor.Extract(ctx, doc)
		w.resolveExtraction(gen, outcome)
	})
	return nil
}

func (w *Workflow) resolveExtraction(gen uint64, outcome extraction.Outcome) {
	w.mu.Lock()
	if w.gen != gen || w.state != StateExtracting {
		// Stale resolution for a reset or replaced instance.
		w.mu.Unlock()
		return
	}

	if outcome.Success {
		rec := outcome.Record
		w.extracted = &rec
		w.form = Merge(w.form, rec)
	}
	w.state = StateEditable
	w.mu.Unlock()

	if !outcome.Success {
		msg := outcome.Err
		if msg == "" {
			msg = "extraction failed, please fill the form manually"
		}
		w.notify("warn", msg)
	}
}

// EditForm applies a user edit to the form. Changing date_of_birth
// clears any pending age error.
func (w *Workflow) EditForm(edit func(*RegistrationForm)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateEditable && w.state != StateIdle {
		return ErrBusy
	}
	prevDOB := w.form.DateOfBirth
	edit(&w.form)
	if w.form.DateOfBirth != prevDOB {
		w.ageErr = nil
	}
	return nil
}

// Submit re-validates required fields, applies the client-side age gate
// and posts the form. Eligibility failures never reach the backend.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateEditable {
		w.mu.Unlock()
		return ErrBusy
	}
	w.ageErr = nil

	if w.form.MissingRequired() {
		w.mu.Unlock()
		w.notify("error", "please fill all required fields")
		return ErrMissingFields
	}

	if err := eligibility.Validate(w.form.DateOfBirth, w.now()); err != nil {
		var below *eligibility.BelowMinimumError
		if errors.As(err, &below) {
			w.ageErr = &AgeError{Message: below.Error(), Age: below.Age, HasAge: true}
			w.mu.Unlock()
			w.notify("error", below.Error())
			return ErrBelowMinimumAge
		}
		w.mu.Unlock()
		return err
	}

	form := w.form
	var extracted map[string]any
	if w.extracted != nil {
		extracted = w.extracted.AsMap()
	}
	w.state = StateSubmitting
	gen := w.gen
	w.mu.Unlock()

	w.spawn(func() {
		result, err := w.backend.Submit(ctx, form, extracted)
		w.resolveSubmission(gen, result, err)
	})
	return nil
}

func (w *Workflow) resolveSubmission(gen uint64, result Result, err error) {
	w.mu.Lock()
	if w.gen != gen || w.state != StateSubmitting {
		w.mu.Unlock()
		return
	}

	if err != nil {
		w.state = StateEditable
		msg := "registration failed, please try again"
		var submitErr *SubmitError
		if errors.As(err, &submitErr) {
			if submitErr.Detail != "" {
				msg = submitErr.Detail
			}
			if submitErr.IsAgeRejection() {
				ageErr := &AgeError{Message: submitErr.Detail}
				if age, ok := parseAgeFromDetail(submitErr.Detail); ok {
					ageErr.Age = age
					ageErr.HasAge = true
				}
				w.ageErr = ageErr
			}
		}
		w.mu.Unlock()
		w.notify("error", msg)
		return
	}

	w.state = StateSuccess
	w.result = &result
	w.resetTimer = time.AfterFunc(w.successTTL, func() {
		w.resetIfCurrent(gen)
	})
	w.mu.Unlock()
	w.notify("success", "registration completed: "+result.RegistrationID)
}

// Reset discards the document, form contents, errors and result,
// releases the preview handle and returns to idle. Any in-flight
// resolution for the old generation is dropped when it lands.
func (w *Workflow) Reset() {
	w.mu.Lock()
	w.resetLocked()
	w.mu.Unlock()
}

func (w *Workflow) resetIfCurrent(gen uint64) {
	w.mu.Lock()
	if w.gen != gen || w.state != StateSuccess {
		w.mu.Unlock()
		return
	}
	w.resetLocked()
	w.mu.Unlock()
}

func (w *Workflow) resetLocked() {
	if w.resetTimer != nil {
		w.resetTimer.Stop()
		w.resetTimer = nil
	}
	if w.doc != nil {
		w.doc.Preview.Release()
		w.doc = nil
	}
	w.extracted = nil
	w.form = NewForm()
	w.ageErr = nil
	w.result = nil
	w.gen++
	w.state = StateIdle
}

var ageDetailPattern = regexp.MustCompile(`Current age: (\d+)`)

func parseAgeFromDetail(detail string) (int, bool) {
	match := ageDetailPattern.FindStringSubmatch(detail)
	if match == nil {
		return 0, false
	}
	age, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return age, true
}
