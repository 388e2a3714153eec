package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fuelprice-platform/internal/models"
	"fuelprice-platform/pkg/database"
	"fuelprice-platform/pkg/logging"
	"fuelprice-platform/pkg/metrics"
)

// Default window caps for the two read paths.
const (
	DefaultRecentLimit  = 120
	DefaultStationLimit = 30
)

// LedgerRepository provides data access for the price ledger and the
// station directory it references.
type LedgerRepository interface {
	// Station directory operations
	UpsertStation(ctx context.Context, station *models.Station) error
	GetStation(ctx context.Context, stationID string) (*models.Station, error)
	ListStations(ctx context.Context) ([]*models.Station, error)

	// Ledger operations
	UpsertPriceField(ctx context.Context, stationID, dateKey string, grade models.FuelGrade, amount float64, actor string, recordedAt time.Time) error
	QueryRecent(ctx context.Context, limit int) ([]*models.DailyPriceRecord, error)
	QueryByStation(ctx context.Context, stationID string, limit int) ([]*models.DailyPriceRecord, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// gradeColumn maps a validated grade to its daily_prices column. The switch is
// exhaustive over the enum so no caller-supplied text ever reaches the SQL.
func gradeColumn(grade models.FuelGrade) (string, error) {
	switch grade {
	case models.GradeRegular:
		return "regular", nil
	case models.GradeMidgrade:
		return "midgrade", nil
	case models.GradePremium:
		return "premium", nil
	case models.GradeDiesel:
		return "diesel", nil
	default:
		return "", fmt.Errorf("unknown fuel grade %q", grade)
	}
}

// ledgerRepository implements LedgerRepository over PostgreSQL
type ledgerRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewLedgerRepository creates a new Postgres-backed ledger repository
func NewLedgerRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) LedgerRepository {
	return &ledgerRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// classify wraps store-reachability failures so callers can tell a retryable
// outage from a permanent query error.
func (r *ledgerRepository) classify(op string, err error) error {
	if database.IsUnavailable(err) {
		return &UnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// UpsertStation creates or refreshes a station directory entry
func (r *ledgerRepository) UpsertStation(ctx context.Context, station *models.Station) error {
	query := `
		INSERT INTO stations (id, name, latitude, longitude, address, brand, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			address = EXCLUDED.address,
			brand = EXCLUDED.brand,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, "upsert_station", query,
		station.ID,
		station.Name,
		station.Latitude,
		station.Longitude,
		station.Address,
		station.Brand,
		station.CreatedAt,
		station.UpdatedAt,
	)

	if err != nil {
		return r.classify("upsert station", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_STATION] Station written", logging.Fields{
		"station_id": station.ID,
		"name":       station.Name,
	})

	return nil
}

// GetStation retrieves a station by ID
func (r *ledgerRepository) GetStation(ctx context.Context, stationID string) (*models.Station, error) {
	query := `
		SELECT id, name, latitude, longitude, address, brand, created_at, updated_at
		FROM stations
		WHERE id = $1
	`

	var station models.Station
	err := r.db.GetContext(ctx, "get_station", &station, query, stationID)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "station",
			ID:       stationID,
		}
	}

	if err != nil {
		return nil, r.classify("get station", err)
	}

	return &station, nil
}

// ListStations retrieves the full station directory ordered by id
func (r *ledgerRepository) ListStations(ctx context.Context) ([]*models.Station, error) {
	query := `
		SELECT id, name, latitude, longitude, address, brand, created_at, updated_at
		FROM stations
		ORDER BY id
	`

	var stations []*models.Station
	err := r.db.SelectContext(ctx, "list_stations", &stations, query)

	if err != nil {
		return nil, r.classify("list stations", err)
	}

	return stations, nil
}

// UpsertPriceField merges a single grade price into the (station, date) record.
// The DO UPDATE clause touches only the one grade column plus recorded_at and
// recorded_by; the other grade columns are never part of the statement, so
// concurrent writers on different grades cannot clobber each other. The
// conflict target on (station_id, price_date) enforces the one-record-per-day
// invariant and resolves the create/create race inside the statement.
func (r *ledgerRepository) UpsertPriceField(ctx context.Context, stationID, dateKey string, grade models.FuelGrade, amount float64, actor string, recordedAt time.Time) error {
	column, err := gradeColumn(grade)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO daily_prices (station_id, price_date, %s, recorded_at, recorded_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (station_id, price_date) DO UPDATE SET
			%s = EXCLUDED.%s,
			recorded_at = EXCLUDED.recorded_at,
			recorded_by = EXCLUDED.recorded_by
	`, column, column, column)

	_, err = r.db.ExecContext(ctx, "upsert_price_"+column, query,
		stationID,
		dateKey,
		amount,
		recordedAt,
		actor,
	)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return r.classify("upsert price field", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_PRICE] Price field merged", logging.Fields{
		"station_id": stationID,
		"price_date": dateKey,
		"grade":      string(grade),
	})

	return nil
}

// QueryRecent returns the most recent records across all stations,
// date descending then last-write descending, capped at limit.
func (r *ledgerRepository) QueryRecent(ctx context.Context, limit int) ([]*models.DailyPriceRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	query := `
		SELECT id, station_id, to_char(price_date, 'YYYY-MM-DD') AS price_date,
		       regular, midgrade, premium, diesel,
		       recorded_at, recorded_by
		FROM daily_prices
		ORDER BY price_date DESC, recorded_at DESC
		LIMIT $1
	`

	var records []*models.DailyPriceRecord
	err := r.db.SelectContext(ctx, "query_recent", &records, query, limit)

	if err != nil {
		return nil, r.classify("query recent", err)
	}

	return records, nil
}

// QueryByStation returns one station's records in ascending date order,
// capped at limit, for time-series projection.
func (r *ledgerRepository) QueryByStation(ctx context.Context, stationID string, limit int) ([]*models.DailyPriceRecord, error) {
	if limit <= 0 {
		limit = DefaultStationLimit
	}

	// Inner query picks the most recent window, outer re-orders it ascending
	// for charting.
	query := `
		SELECT id, station_id, price_date, regular, midgrade, premium, diesel,
		       recorded_at, recorded_by
		FROM (
			SELECT id, station_id, to_char(price_date, 'YYYY-MM-DD') AS price_date,
			       regular, midgrade, premium, diesel,
			       recorded_at, recorded_by
			FROM daily_prices
			WHERE station_id = $1
			ORDER BY price_date DESC
			LIMIT $2
		) AS window
		ORDER BY price_date ASC
	`

	var records []*models.DailyPriceRecord
	err := r.db.SelectContext(ctx, "query_by_station", &records, query, stationID, limit)

	if err != nil {
		return nil, r.classify("query by station", err)
	}

	return records, nil
}

// HealthCheck performs a repository health check
func (r *ledgerRepository) HealthCheck(ctx context.Context) error {
	if err := r.db.HealthCheck(ctx); err != nil {
		return &UnavailableError{Op: "health check", Err: err}
	}
	return nil
}
