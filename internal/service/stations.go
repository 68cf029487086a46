package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

// StationsService is the station registry: read-mostly, mutated only by owner
// registration and admin approval.
type StationsService struct {
	repo   StationStore
	logger *zap.Logger
}

// NewStationsService builds service.
func NewStationsService(repo StationStore, logger *zap.Logger) *StationsService {
	return &StationsService{repo: repo, logger: logger}
}

// CreateStationInput is the owner registration payload.
type CreateStationInput struct {
	Name         string  `json:"name"`
	Location     string  `json:"location"`
	Chargers     int     `json:"chargers"`
	PricePerUnit float64 `json:"price_per_unit"`
	GreenScore   int     `json:"green_score"`
}

// Create registers a new, unapproved station for the calling owner.
func (s *StationsService) Create(ctx context.Context, identity models.Identity, input CreateStationInput) (models.Station, error) {
	if identity.Role != models.RoleOwner {
		return models.Station{}, models.ErrUnauthorized
	}
	if strings.TrimSpace(input.Name) == "" {
		return models.Station{}, fmt.Errorf("%w: name required", models.ErrInvalidInput)
	}
	if input.Chargers <= 0 {
		return models.Station{}, fmt.Errorf("%w: chargers must be positive", models.ErrInvalidInput)
	}
	if input.PricePerUnit < 0 {
		return models.Station{}, fmt.Errorf("%w: price must be non-negative", models.ErrInvalidInput)
	}

	station := models.Station{
		Name:         strings.TrimSpace(input.Name),
		Location:     input.Location,
		Chargers:     input.Chargers,
		PricePerUnit: input.PricePerUnit,
		GreenScore:   input.GreenScore,
		OwnerID:      identity.UserID,
	}
	if err := s.repo.Create(ctx, &station); err != nil {
		return models.Station{}, err
	}

	s.logger.Info("station registered",
		zap.String("name", station.Name),
		zap.Int64("owner_id", station.OwnerID),
		zap.Int("chargers", station.Chargers),
	)
	return station, nil
}

// Get looks a station up by name.
func (s *StationsService) Get(ctx context.Context, name string) (models.Station, error) {
	return s.repo.GetByName(ctx, name)
}

// Capacity returns the number of chargers installed at the station.
func (s *StationsService) Capacity(ctx context.Context, name string) (int, error) {
	station, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return station.Chargers, nil
}

// ListApproved returns approved stations ordered by name.
func (s *StationsService) ListApproved(ctx context.Context) ([]models.Station, error) {
	return s.repo.ListApproved(ctx)
}

// ListByOwner returns the caller's stations.
func (s *StationsService) ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Approve marks a station approved. Admin only.
func (s *StationsService) Approve(ctx context.Context, identity models.Identity, stationID int64) error {
	if identity.Role != models.RoleAdmin {
		return models.ErrUnauthorized
	}
	if err := s.repo.Approve(ctx, stationID); err != nil {
		return err
	}
	s.logger.Info("station approved", zap.Int64("station_id", stationID))
	return nil
}
