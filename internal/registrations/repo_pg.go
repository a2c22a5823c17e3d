package registrations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new registration.
func (r *PGRepo) Create(ctx context.Context, reg Registration) error {
	const query = `
INSERT INTO registrations (
    registration_id,
    full_name,
    date_of_birth,
    age,
    address,
    id_number,
    id_type,
    extracted_data,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var extracted sql.NullString
	if reg.ExtractedData != nil {
		raw, err := json.Marshal(reg.ExtractedData)
		if err != nil {
			return fmt.Errorf("marshal extracted_data: %w", err)
		}
		extracted = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		reg.RegistrationID,
		reg.FullName,
		reg.DateOfBirth,
		reg.Age,
		reg.Address,
		reg.IDNumber,
		reg.IDType,
		extracted,
		reg.CreatedAt,
	)
	return err
}

// List returns registrations newest first, up to limit.
func (r *PGRepo) List(ctx context.Context, limit int) ([]Registration, error) {
	const query = `
SELECT registration_id, full_name, date_of_birth, age, address, id_number, id_type, extracted_data, created_at
FROM registrations
ORDER BY created_at DESC
LIMIT $1`

	if limit <= 0 {
		limit = 1000
	}

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Registration
	for rows.Next() {
		var reg Registration
		var extracted sql.NullString
		if err := rows.Scan(
			&reg.RegistrationID,
			&reg.FullName,
			&reg.DateOfBirth,
			&reg.Age,
			&reg.Address,
			&reg.IDNumber,
			&reg.IDType,
			&extracted,
			&reg.CreatedAt,
		); err != nil {
			return nil, err
		}
		if extracted.Valid && extracted.String != "" {
			if err := json.Unmarshal([]byte(extracted.String), &reg.ExtractedData); err != nil {
				return nil, fmt.Errorf("unmarshal extracted_data for %s: %w", reg.RegistrationID, err)
			}
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}
