package services

import (
	"context"
	"strings"
	"time"

	"fuelprice-platform/internal/models"
	"fuelprice-platform/internal/repository"
	"fuelprice-platform/pkg/logging"
	"fuelprice-platform/pkg/metrics"
)

// DirectoryService handles station directory lookups and the administrative
// registration path. The ledger reads the directory; it never writes it.
type DirectoryService struct {
	repo    repository.LedgerRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(repo repository.LedgerRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DirectoryService {
	return &DirectoryService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Get retrieves a station by id.
func (s *DirectoryService) Get(ctx context.Context, stationID string) (*models.Station, error) {
	return s.repo.GetStation(ctx, stationID)
}

// List retrieves the full directory ordered by id.
func (s *DirectoryService) List(ctx context.Context) ([]*models.Station, error) {
	return s.repo.ListStations(ctx)
}

// Register adds or refreshes a station. Administrative operation on the
// directory, separate from the ledger's write path.
func (s *DirectoryService) Register(ctx context.Context, station *models.Station) error {
	station.ID = strings.TrimSpace(station.ID)
	station.Name = strings.TrimSpace(station.Name)

	if station.ID == "" {
		return &models.ValidationError{Field: "id", Value: station.ID, Message: "station id is required"}
	}
	if station.Name == "" {
		return &models.ValidationError{Field: "name", Value: station.Name, Message: "station name is required"}
	}
	if station.Latitude < -90 || station.Latitude > 90 {
		return &models.ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"}
	}
	if station.Longitude < -180 || station.Longitude > 180 {
		return &models.ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"}
	}

	now := time.Now().UTC()
	if station.CreatedAt.IsZero() {
		station.CreatedAt = now
	}
	station.UpdatedAt = now

	if err := s.repo.UpsertStation(ctx, station); err != nil {
		return err
	}

	s.metrics.StationsRegistered.Inc()
	s.logger.Info(ctx, "[DIRECTORY_REGISTER] Station registered", logging.Fields{
		"station_id": station.ID,
		"name":       station.Name,
	})

	return nil
}
