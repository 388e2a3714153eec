package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fuelprice-platform/internal/models"
	"fuelprice-platform/internal/repository"
	"fuelprice-platform/pkg/logging"
	"fuelprice-platform/pkg/metrics"
)

// SeedService loads the station directory from a YAML file and writes it
// through the directory registration path.
type SeedService struct {
	directory *DirectoryService
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// SeedResult contains seeding statistics
type SeedResult struct {
	TotalStations  int
	SeededStations int
	FailedStations int
	Duration       time.Duration
	Errors         []string
}

// stationSeed is one entry of the stations YAML file.
type stationSeed struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Address   string  `yaml:"address"`
	Brand     string  `yaml:"brand"`
}

type stationsFile struct {
	Stations []stationSeed `yaml:"stations"`
}

// NewSeedService creates a new seed service
func NewSeedService(directory *DirectoryService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SeedService {
	return &SeedService{
		directory: directory,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// SeedFile parses a stations YAML file and upserts every entry.
func (s *SeedService) SeedFile(ctx context.Context, path string) (*SeedResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[SEED_START] Starting station directory seeding", logging.Fields{
		"stations_file": path,
	})

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stations file: %w", err)
	}

	var file stationsFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse stations file: %w", err)
	}

	if len(file.Stations) == 0 {
		return nil, fmt.Errorf("no stations defined in %s", path)
	}

	result := &SeedResult{
		TotalStations: len(file.Stations),
		Errors:        make([]string, 0),
	}

	for _, seed := range file.Stations {
		station := &models.Station{
			ID:        seed.ID,
			Name:      seed.Name,
			Latitude:  seed.Latitude,
			Longitude: seed.Longitude,
			Address:   seed.Address,
			Brand:     seed.Brand,
		}

		if err := s.directory.Register(ctx, station); err != nil {
			result.FailedStations++
			result.Errors = append(result.Errors, fmt.Sprintf("station %s: %v", seed.ID, err))
			s.logger.Error(ctx, "[SEED_STATION_ERROR] Failed to seed station", logging.Fields{
				"station_id": seed.ID,
			}, err)

			var unavailableErr *repository.UnavailableError
			if errors.As(err, &unavailableErr) {
				// No point continuing against a dead store.
				return result, err
			}
			continue
		}

		result.SeededStations++
		s.metrics.StationsSeededTotal.Inc()
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[SEED_COMPLETE] Station directory seeding completed", logging.Fields{
		"total_stations":  result.TotalStations,
		"seeded_stations": result.SeededStations,
		"failed_stations": result.FailedStations,
		"duration_ms":     result.Duration.Milliseconds(),
	})

	return result, nil
}
