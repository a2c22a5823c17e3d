package workflow

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"registration-portal/internal/extraction"
	"registration-portal/internal/intake"
)

type fakeExtractor struct {
	outcome extraction.Outcome
	calls   int
}

func (f *fakeExtractor) Extract(ctx context.Context, doc *intake.UploadedDocument) extraction.Outcome {
	f.calls++
	return f.outcome
}

type fakeSubmitter struct {
	result Result
	err    error
	calls  int
	last   RegistrationForm
}

func (f *fakeSubmitter) Submit(ctx context.Context, form RegistrationForm, extracted map[string]any) (Result, error) {
	f.calls++
	f.last = form
	return f.result, f.err
}

type notices struct {
	entries []string
}

func (n *notices) record(level, message string) {
	n.entries = append(n.entries, level+": "+message)
}

func (n *notices) contains(substr string) bool {
	for _, e := range n.entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

var fixedNow = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func inline(f func()) { f() }

func newTestWorkflow(ext *fakeExtractor, sub *fakeSubmitter, n *notices) *Workflow {
	return New(ext, sub,
		WithClock(func() time.Time { return fixedNow }),
		WithNotifier(n.record),
		WithSuccessTTL(time.Hour), // manual reset in tests
		withSpawn(inline),
	)
}

func acceptImage(t *testing.T, w *Workflow) {
	t.Helper()
	payload := []byte("fake image")
	if err := w.Accept(context.Background(), "card.jpg", "image/jpeg", int64(len(payload)), bytes.NewReader(payload)); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	t.Cleanup(w.Reset) // releases the preview temp file
}

func TestWorkflowHappyPath(t *testing.T) {
	ext := &fakeExtractor{outcome: extraction.Outcome{
		Success: true,
		Record: extraction.Record{
			FullName:    "Asha Rao",
			DateOfBirth: "12/03/1960",
			Address:     "12 Lake Rd",
			IDNumber:    "ABCD1234E",
			IDType:      "PAN",
		},
	}}
	sub := &fakeSubmitter{result: Result{RegistrationID: "REG-0001"}}
	n := &notices{}
	w := newTestWorkflow(ext, sub, n)

	acceptImage(t, w)

	if w.State() != StateEditable {
		t.Fatalf("expected editable after inline extraction, got %v", w.State())
	}
	form := w.Form()
	if form.FullName != "Asha Rao" || form.IDType != "PAN" {
		t.Fatalf("form not auto-filled: %+v", form)
	}

	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if w.State() != StateSuccess {
		t.Fatalf("expected success, got %v", w.State())
	}
	result := w.Result()
	if result == nil || result.RegistrationID != "REG-0001" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if sub.calls != 1 {
		t.Fatalf("expected one backend call, got %d", sub.calls)
	}

	w.Reset()
	if w.State() != StateIdle {
		t.Fatalf("expected idle after reset, got %v", w.State())
	}
	if got := w.Form(); got != NewForm() {
		t.Fatalf("form must be cleared on reset: %+v", got)
	}
	if w.Result() != nil {
		t.Fatal("result must be cleared on reset")
	}
}

func TestWorkflowBlocksUnderageClientSide(t *testing.T) {
	ext := &fakeExtractor{outcome: extraction.Outcome{
		Success: true,
		Record: extraction.Record{
			FullName:    "Asha Rao",
			DateOfBirth: "01/01/2010",
			Address:     "12 Lake Rd",
			IDNumber:    "ABCD1234E",
			IDType:      "PAN",
		},
	}}
	sub := &fakeSubmitter{result: Result{RegistrationID: "REG-0002"}}
	n := &notices{}
	w := newTestWorkflow(ext, sub, n)

	acceptImage(t, w)

	err := w.Submit(context.Background())
	if !errors.Is(err, ErrBelowMinimumAge) {
		t.Fatalf("expected ErrBelowMinimumAge, got %v", err)
	}
	if sub.calls != 0 {
		t.Fatal("age rejection must not reach the backend")
	}
	if w.State() != StateEditable {
		t.Fatalf("expected editable after rejection, got %v", w.State())
	}

	ageErr := w.AgeError()
	if ageErr == nil || !ageErr.HasAge || ageErr.Age != 15 {
		t.Fatalf("expected age error with age 15, got %+v", ageErr)
	}
	if !strings.Contains(ageErr.Message, "15") {
		t.Fatalf("age error must reference the computed age: %q", ageErr.Message)
	}

	// Correcting the date of birth clears the error and unblocks submit.
	if err := w.EditForm(func(f *RegistrationForm) { f.DateOfBirth = "12/03/1960" }); err != nil {
		t.Fatalf("EditForm: %v", err)
	}
	if w.AgeError() != nil {
		t.Fatal("editing date_of_birth must clear the age error")
	}
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit after correction: %v", err)
	}
	if w.State() != StateSuccess {
		t.Fatalf("expected success, got %v", w.State())
	}
}

func TestWorkflowIndeterminateAgeProceeds(t *testing.T) {
	ext := &fakeExtractor{outcome: extraction.Outcome{Success: false, Err: "No text detected in the image"}}
	sub := &fakeSubmitter{result: Result{RegistrationID: "REG-0003"}}
	n := &notices{}
	w := newTestWorkflow(ext, sub, n)

	acceptImage(t, w)
	if w.State() != StateEditable {
		t.Fatalf("extraction failure is not fatal, expected editable, got %v", w.State())
	}
	if !n.contains("No text detected") {
		t.Fatalf("expected extraction failure notice, got %v", n.entries)
	}

	// Manual entry with an unparseable date still submits; the server is
	// the authority on age.
	if err := w.EditForm(func(f *RegistrationForm) {
		f.FullName = "Asha Rao"
		f.DateOfBirth = "sometime in 1960"
		f.Address = "12 Lake Rd"
		f.IDNumber = "ABCD1234E"
	}); err != nil {
		t.Fatalf("EditForm: %v", err)
	}
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.calls != 1 {
		t.Fatal("indeterminate age must reach the backend")
	}
}

func TestWorkflowRequiredFields(t *testing.T) {
	ext := &fakeExtractor{outcome: extraction.Outcome{Success: true}}
	sub := &fakeSubmitter{}
	n := &notices{}
	w := newTestWorkflow(ext, sub, n)

	acceptImage(t, w)

	err := w.Submit(context.Background())
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if sub.calls != 0 {
		t.Fatal("missing fields must not reach the backend")
	}
	if !n.contains("required fields") {
		t.Fatalf("expected required-fields notice, got %v", n.entries)
	}
}

func TestWorkflowBackendAgeRejection(t *testing.T) {
	ext := &fakeExtractor{outcome: extraction.Outcome{Success: false, Err: "no text"}}
	sub := &fakeSubmitter{err: &SubmitError{StatusCode: 400, Detail: "Age must be 50 or above. Current age: 49"}}
	n := &notices{}
	w := newTestWorkflow(ext, sub, n)

	acceptImage(t, w)
	// A date the client cannot parse slips past the fast path; the
	// backend still rejects it.
	if err := w.EditForm(func(f *RegistrationForm) {
		f.FullName = "Asha Rao"
		f.DateOfBirth = "06/15/1976"
		f.Address = "12 Lake Rd"
		f.IDNumber = "ABCD1234E"
	}); err != nil {
		t.Fatalf("EditForm: %v", err)
	}

	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if w.State() != StateEditable {
		t.Fatalf("backend rejection returns to editable, got %v", w.State())
	}

	ageErr := w.AgeError()
	if ageErr == nil {
		t.Fatal("backend age rejection must populate the age error")
	}
	if !ageErr.HasAge || ageErr.Age != 49 {
		t.Fatalf("expected age 49 parsed from detail, got %+v", ageErr)
	}
	if w.Form().FullName != "Asha Rao" {
		t.Fatal("form must be preserved for resubmission")
	}
}

func TestWorkflowBackendGenericFailure(t *testing.T) {
	ext := &fakeExtractor{outcome: extraction.Outcome{Success: true, Record: extraction.Record{
		FullName: "Asha Rao", DateOfBirth: "12/03/1960", Address: "12 Lake Rd", IDNumber: "ABCD1234E",
	}}}
	sub := &fakeSubmitter{err: &SubmitError{StatusCode: 500, Detail: "failed to create registration"}}
	n := &notices{}
	w := newTestWorkflow(ext, sub, n)

	acceptImage(t, w)
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if w.State() != StateEditable {
		t.Fatalf("expected editable after backend failure, got %v", w.State())
	}
	if w.AgeError() != nil {
		t.Fatal("generic failure must not set an age error")
	}
	if !n.contains("failed to create registration") {
		t.Fatalf("expected backend detail surfaced, got %v", n.entries)
	}
}

func TestWorkflowStaleResolutionIgnored(t *testing.T) {
	ext := &fakeExtractor{outcome: extraction.Outcome{Success: true, Record: extraction.Record{
		FullName: "Stale Name",
	}}}
	sub := &fakeSubmitter{}
	n := &notices{}

	// Capture async work instead of running it, to interleave a reset.
	var pending []func()
	w := New(ext, sub,
		WithClock(func() time.Time { return fixedNow }),
		WithNotifier(n.record),
		withSpawn(func(f func()) { pending = append(pending, f) }),
	)

	acceptImage(t, w)
	if w.State() != StateExtracting {
		t.Fatalf("expected extracting, got %v", w.State())
	}

	w.Reset()
	if w.State() != StateIdle {
		t.Fatalf("expected idle after reset, got %v", w.State())
	}

	// The extraction resolves after the reset; it must not resurrect data.
	for _, f := range pending {
		f()
	}
	if w.State() != StateIdle {
		t.Fatalf("stale resolution must be dropped, got %v", w.State())
	}
	if w.Form().FullName != "" {
		t.Fatalf("stale data leaked into the form: %+v", w.Form())
	}
}

func TestWorkflowRejectsUploadWhileExtracting(t *testing.T) {
	ext := &fakeExtractor{}
	sub := &fakeSubmitter{}
	n := &notices{}

	var pending []func()
	w := New(ext, sub,
		WithNotifier(n.record),
		withSpawn(func(f func()) { pending = append(pending, f) }),
	)

	acceptImage(t, w)
	payload := []byte("another image")
	err := w.Accept(context.Background(), "card2.jpg", "image/jpeg", int64(len(payload)), bytes.NewReader(payload))
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while extracting, got %v", err)
	}
}

func TestWorkflowIntakeRejectionLeavesStateUnchanged(t *testing.T) {
	ext := &fakeExtractor{}
	sub := &fakeSubmitter{}
	n := &notices{}
	w := newTestWorkflow(ext, sub, n)

	err := w.Accept(context.Background(), "doc.pdf", "application/pdf", 100, bytes.NewReader(make([]byte, 100)))
	if !errors.Is(err, intake.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if w.State() != StateIdle {
		t.Fatalf("rejected upload must not change state, got %v", w.State())
	}
	if ext.calls != 0 {
		t.Fatal("rejected upload must not trigger extraction")
	}

	err = w.Accept(context.Background(), "big.png", "image/png", 12*1024*1024, bytes.NewReader(nil))
	if !errors.Is(err, intake.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if ext.calls != 0 {
		t.Fatal("oversize upload must not trigger extraction")
	}
}

func TestWorkflowAutoResetAfterSuccess(t *testing.T) {
	ext := &fakeExtractor{outcome: extraction.Outcome{Success: true, Record: extraction.Record{
		FullName: "Asha Rao", DateOfBirth: "12/03/1960", Address: "12 Lake Rd", IDNumber: "ABCD1234E",
	}}}
	sub := &fakeSubmitter{result: Result{RegistrationID: "REG-0004"}}
	n := &notices{}
	w := New(ext, sub,
		WithClock(func() time.Time { return fixedNow }),
		WithNotifier(n.record),
		WithSuccessTTL(10*time.Millisecond),
		withSpawn(inline),
	)

	acceptImage(t, w)
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if w.State() != StateSuccess {
		t.Fatalf("expected success, got %v", w.State())
	}

	deadline := time.Now().Add(2 * time.Second)
	for w.State() != StateIdle {
		if time.Now().After(deadline) {
			t.Fatal("workflow did not auto-reset out of success")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if w.Result() != nil {
		t.Fatal("result must be discarded by the auto-reset")
	}
}

func TestWorkflowManualResetCancelsTimer(t *testing.T) {
	ext := &fakeExtractor{outcome: extraction.Outcome{Success: true, Record: extraction.Record{
		FullName: "Asha Rao", DateOfBirth: "12/03/1960", Address: "12 Lake Rd", IDNumber: "ABCD1234E",
	}}}
	sub := &fakeSubmitter{result: Result{RegistrationID: "REG-0005"}}
	n := &notices{}
	w := New(ext, sub,
		WithClock(func() time.Time { return fixedNow }),
		WithNotifier(n.record),
		WithSuccessTTL(25*time.Millisecond),
		withSpawn(inline),
	)

	acceptImage(t, w)
	if err := w.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	w.Reset()
	acceptImage(t, w) // start a fresh run immediately

	// Let the original timer fire; the generation guard must keep it from
	// resetting the new run.
	time.Sleep(60 * time.Millisecond)
	if w.State() != StateEditable {
		t.Fatalf("expired timer from the old run must be inert, got %v", w.State())
	}
}
