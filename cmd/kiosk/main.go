package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"registration-portal/internal/extraction"
	"registration-portal/internal/shared/config"
	"registration-portal/internal/workflow"
)

// kiosk runs one registration end to end from the command line: upload a
// document image, wait for extraction, apply field overrides and submit.
func main() {
	cfg := config.Load()

	filePath := flag.String("file", "", "path to the ID document image (required)")
	portal := flag.String("portal", cfg.PortalBaseURL, "portal base URL")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	name := flag.String("name", "", "override full name")
	dob := flag.String("dob", "", "override date of birth (DD/MM/YYYY)")
	address := flag.String("address", "", "override address")
	idNumber := flag.String("id-number", "", "override ID number")
	idType := flag.String("id-type", "", "override ID type (Aadhaar, PAN, Other)")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "kiosk: -file is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*filePath, *portal, *timeout, cfg.SuccessResetDelay, overrides{
		fullName: *name,
		dob:      *dob,
		address:  *address,
		idNumber: *idNumber,
		idType:   *idType,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "kiosk: %v\n", err)
		os.Exit(1)
	}
}

type overrides struct {
	fullName string
	dob      string
	address  string
	idNumber string
	idType   string
}

func (o overrides) apply(form *workflow.RegistrationForm) {
	if o.fullName != "" {
		form.FullName = o.fullName
	}
	if o.dob != "" {
		form.DateOfBirth = o.dob
	}
	if o.address != "" {
		form.Address = o.address
	}
	if o.idNumber != "" {
		form.IDNumber = o.idNumber
	}
	if o.idType != "" {
		form.IDType = o.idType
	}
}

func run(filePath, portal string, timeout, resetDelay time.Duration, ov overrides) error {
	payload, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	w := workflow.New(
		extraction.NewClient(portal, timeout),
		workflow.NewSubmitClient(portal, timeout),
		workflow.WithNotifier(func(level, message string) {
			fmt.Printf("[%s] %s\n", level, message)
		}),
		workflow.WithSuccessTTL(resetDelay),
	)
	defer w.Reset()

	ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
	defer cancel()

	mediaType := http.DetectContentType(payload)
	if err := w.Accept(ctx, filepath.Base(filePath), mediaType, int64(len(payload)), bytes.NewReader(payload)); err != nil {
		return err
	}

	fmt.Println("extracting...")
	if err := waitWhile(ctx, w, workflow.StateExtracting); err != nil {
		return err
	}

	form := w.Form()
	fmt.Printf("extracted: name=%q dob=%q id=%s/%q address=%q\n",
		form.FullName, form.DateOfBirth, form.IDType, form.IDNumber, form.Address)

	if err := w.EditForm(ov.apply); err != nil {
		return err
	}

	if err := w.Submit(ctx); err != nil {
		if errors.Is(err, workflow.ErrBelowMinimumAge) {
			if ageErr := w.AgeError(); ageErr != nil {
				return errors.New(ageErr.Message)
			}
		}
		return err
	}

	if err := waitWhile(ctx, w, workflow.StateSubmitting); err != nil {
		return err
	}

	if w.State() != workflow.StateSuccess {
		if ageErr := w.AgeError(); ageErr != nil {
			return errors.New(ageErr.Message)
		}
		return errors.New("registration was not accepted")
	}

	result := w.Result()
	fmt.Printf("registered: %s\n", result.RegistrationID)
	return nil
}

// waitWhile polls until the workflow leaves the given state.
func waitWhile(ctx context.Context, w *workflow.Workflow, state workflow.State) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for w.State() == state {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
