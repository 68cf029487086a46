package repository

import (
	"context"
	"database/sql"
	"errors"

	"chargehub/internal/models"
)

// StationRepository handles persistence of charging stations.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

// Create inserts a station. New stations are unapproved until an admin
// approves them.
func (r *StationRepository) Create(ctx context.Context, station *models.Station) error {
	const query = `
		INSERT INTO stations (name, location, chargers, price_per_unit, green_score, owner_id, approved)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		station.Name,
		station.Location,
		station.Chargers,
		station.PricePerUnit,
		station.GreenScore,
		station.OwnerID,
	).Scan(&station.ID)
}

// GetByName looks a station up by its unique name.
func (r *StationRepository) GetByName(ctx context.Context, name string) (models.Station, error) {
	const query = `
		SELECT id, name, location, chargers, price_per_unit, green_score, owner_id, approved
		FROM stations
		WHERE name = $1
	`
	var s models.Station
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&s.ID,
		&s.Name,
		&s.Location,
		&s.Chargers,
		&s.PricePerUnit,
		&s.GreenScore,
		&s.OwnerID,
		&s.Approved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Station{}, models.ErrStationNotFound
	}
	if err != nil {
		return models.Station{}, err
	}
	return s, nil
}

// ListApproved returns approved stations ordered by name.
func (r *StationRepository) ListApproved(ctx context.Context) ([]models.Station, error) {
	const query = `
		SELECT id, name, location, chargers, price_per_unit, green_score, owner_id, approved
		FROM stations
		WHERE approved = TRUE
		ORDER BY name ASC
	`
	return r.list(ctx, query)
}

// ListByOwner returns all stations registered by the owner.
func (r *StationRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error) {
	const query = `
		SELECT id, name, location, chargers, price_per_unit, green_score, owner_id, approved
		FROM stations
		WHERE owner_id = $1
		ORDER BY name ASC
	`
	return r.list(ctx, query, ownerID)
}

// Approve flips the approval flag.
func (r *StationRepository) Approve(ctx context.Context, stationID int64) error {
	const query = `UPDATE stations SET approved = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, stationID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrStationNotFound
	}
	return nil
}

func (r *StationRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Station, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Location,
			&s.Chargers,
			&s.PricePerUnit,
			&s.GreenScore,
			&s.OwnerID,
			&s.Approved,
		); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}
