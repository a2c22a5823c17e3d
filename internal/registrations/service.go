package registrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"registration-portal/internal/eligibility"
	"registration-portal/internal/shared/metrics"
	"registration-portal/internal/shared/telemetry"
)

// UnderageError rejects a submission whose recomputed age is below the
// minimum. This is the authoritative gate; the kiosk's own check is only
// a fast path.
type UnderageError struct {
	Age int
}

func (e *UnderageError) Error() string {
	return fmt.Sprintf("Age must be %d or above. Current age: %d", eligibility.MinimumAge, e.Age)
}

// Service contains business logic for registrations.
type Service struct {
	Repo Repo

	// now is swappable for tests.
	now func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates a submission, recomputes the age, issues a
// registration id and persists the record.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Registration, error) {
	if strings.TrimSpace(req.FullName) == "" ||
		strings.TrimSpace(req.DateOfBirth) == "" ||
		strings.TrimSpace(req.Address) == "" ||
		strings.TrimSpace(req.IDNumber) == "" {
		return Registration{}, ErrInvalidInput
	}

	idType := req.IDType
	switch idType {
	case IDTypeAadhaar, IDTypePAN, IDTypeOther:
	default:
		idType = IDTypeAadhaar
	}

	now := s.now()

	// An unparseable date of birth counts as age 0 and is rejected here;
	// the kiosk lets indeterminate dates through on purpose.
	age, _ := eligibility.ComputeAge(req.DateOfBirth, now)
	if age < eligibility.MinimumAge {
		metrics.IncRegistrationRejected()
		return Registration{}, &UnderageError{Age: age}
	}

	reg := Registration{
		RegistrationID: newRegistrationID(now),
		FullName:       req.FullName,
		DateOfBirth:    req.DateOfBirth,
		Age:            age,
		Address:        req.Address,
		IDNumber:       req.IDNumber,
		IDType:         idType,
		ExtractedData:  req.ExtractedData,
		CreatedAt:      now,
	}

	if err := s.Repo.Create(ctx, reg); err != nil {
		return Registration{}, fmt.Errorf("store registration: %w", err)
	}

	metrics.IncRegistrationCreated()
	telemetry.Info("registration.created", map[string]any{
		"registration_id": reg.RegistrationID,
		"id_type":         reg.IDType,
		"age":             reg.Age,
	})

	return reg, nil
}

// List returns stored registrations, capped at 1000.
func (s *Service) List(ctx context.Context) ([]Registration, error) {
	return s.Repo.List(ctx, 1000)
}

// newRegistrationID issues ids shaped REG{year}-XXXX with an upper-cased
// uuid prefix as suffix.
func newRegistrationID(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return fmt.Sprintf("REG%d-%s", now.Year(), suffix)
}
