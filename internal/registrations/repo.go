package registrations

import "context"

// Repo defines persistence operations for registrations.
type Repo interface {
	Create(ctx context.Context, reg Registration) error
	List(ctx context.Context, limit int) ([]Registration, error)
}
