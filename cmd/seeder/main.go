package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"fuelprice-platform/internal/config"
	"fuelprice-platform/internal/repository"
	"fuelprice-platform/internal/services"
	"fuelprice-platform/pkg/database"
	"fuelprice-platform/pkg/logging"
	"fuelprice-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	stationsFile := flag.String("stations-file", "config/stations.yaml", "YAML file defining the station directory")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("fuelprice-seeder", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[SEEDER_START] Starting station directory seeding", logging.Fields{
		"version":       "1.0.0",
		"stations_file": *stationsFile,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("fuelprice_seeder")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[SEEDER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository and services
	ledgerRepo := repository.NewLedgerRepository(db, logger, metricsCollector)
	directoryService := services.NewDirectoryService(ledgerRepo, logger, metricsCollector)
	seedService := services.NewSeedService(directoryService, logger, metricsCollector)

	// Seed the station directory
	result, err := seedService.SeedFile(ctx, *stationsFile)
	if err != nil {
		logger.Fatal(ctx, "[SEED_ERROR] Seeding failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SEEDING COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Stations:  %d\n", result.TotalStations)
	fmt.Printf("Seeded Stations: %d\n", result.SeededStations)
	fmt.Printf("Failed Stations: %d\n", result.FailedStations)
	fmt.Printf("Duration:        %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for _, errMsg := range result.Errors {
			fmt.Printf("  - %s\n", errMsg)
		}
	}

	logger.Info(ctx, "[SEEDER_COMPLETE] Seeding completed successfully", logging.Fields{
		"total_stations":  result.TotalStations,
		"seeded_stations": result.SeededStations,
		"failed_stations": result.FailedStations,
	})
}
