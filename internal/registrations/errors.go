package registrations

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("all of full_name, date_of_birth, address and id_number are required")
)
