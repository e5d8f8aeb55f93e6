package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"padelmanager/internal/database"
	"padelmanager/internal/models"
)

const locationColumns = `id, name, COALESCE(address, ''), has_entry_code, COALESCE(default_entry_code, ''), created_at`

// LocationRepository handles database operations for locations
type LocationRepository struct {
	db database.DBTX
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db database.DBTX) *LocationRepository {
	return &LocationRepository{db: db}
}

func scanLocation(row rowScanner) (*models.Location, error) {
	l := &models.Location{}
	err := row.Scan(&l.ID, &l.Name, &l.Address, &l.HasEntryCode, &l.DefaultEntryCode, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Create inserts a new location
func (r *LocationRepository) Create(in models.LocationInput) (*models.Location, error) {
	query := `
		INSERT INTO locations (name, address, has_entry_code, default_entry_code)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, in.Name, nullString(in.Address), in.HasEntryCode, nullString(in.DefaultEntryCode))
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return r.GetByID(id)
}

// GetByID retrieves a location, or nil when it does not exist
func (r *LocationRepository) GetByID(id int64) (*models.Location, error) {
	l, err := scanLocation(r.db.QueryRow(`SELECT `+locationColumns+` FROM locations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return l, nil
}

// GetAll retrieves all locations ordered by name
func (r *LocationRepository) GetAll() ([]models.Location, error) {
	rows, err := r.db.Query(`SELECT ` + locationColumns + ` FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, *l)
	}
	return locations, rows.Err()
}

// Update writes all editable fields
func (r *LocationRepository) Update(id int64, in models.LocationInput) error {
	query := `
		UPDATE locations
		SET name = ?, address = ?, has_entry_code = ?, default_entry_code = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, in.Name, nullString(in.Address), in.HasEntryCode, nullString(in.DefaultEntryCode), id); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return nil
}

// Delete removes a location. Lessons keep existing without a location.
func (r *LocationRepository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM locations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return requireRow(result)
}
