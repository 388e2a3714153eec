package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fuelprice-platform/internal/models"
	"fuelprice-platform/internal/projection"
	"fuelprice-platform/internal/repository"
	"fuelprice-platform/pkg/logging"
	"fuelprice-platform/pkg/metrics"
)

// LedgerService implements the price ledger domain logic: it validates and
// normalizes incoming submissions, resolves the current day bucket, delegates
// the field-level merge to the store, and derives the two read views.
type LedgerService struct {
	repo    repository.LedgerRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	// now is the clock used to resolve the UTC day bucket; replaced in tests.
	now func() time.Time
}

// NewLedgerService creates a new ledger service
func NewLedgerService(repo repository.LedgerRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *LedgerService {
	return &LedgerService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// SubmitResult identifies the ledger record a submission landed in.
type SubmitResult struct {
	DateKey   string `json:"dateKey"`
	StationID string `json:"stationId"`
}

// Snapshot is the cross-station dashboard view: per date, per station, the
// single record for that day. Dates carries the history keys newest first.
type Snapshot struct {
	Stations []*models.Station                              `json:"stations"`
	History  map[string]map[string]*models.DailyPriceRecord `json:"history"`
	Dates    []string                                       `json:"dates"`
}

// Series is the single-station chart view, ascending by date.
type Series struct {
	Station string                   `json:"station"`
	Data    []projection.SeriesPoint `json:"data"`
}

// dateKey resolves the calendar-day bucket for a write. Day boundaries follow
// UTC; deployments wanting station-local days change this one method.
func (s *LedgerService) dateKey(at time.Time) string {
	return at.UTC().Format(models.DateKeyFormat)
}

// SubmitPrice validates a staff price submission and merges it into the
// station's record for the current UTC day. A create/create race between two
// first writers for a new (station, day) pair is retried once as a pure merge.
func (s *LedgerService) SubmitPrice(ctx context.Context, sub models.PriceSubmission) (*SubmitResult, error) {
	grade, err := models.ParseFuelGrade(sub.FuelType)
	if err != nil {
		// Unparsed grades share one label to keep cardinality bounded.
		s.metrics.RecordSubmission("unknown", "invalid")
		return nil, err
	}

	amount, err := sub.Amount()
	if err != nil {
		s.metrics.RecordSubmission(string(grade), "invalid")
		return nil, err
	}

	if _, err := s.repo.GetStation(ctx, sub.StationID); err != nil {
		// An outage is not a rejection: keep the outcomes separate so the
		// dashboards can tell bad input from a down store.
		var unavailableErr *repository.UnavailableError
		if errors.As(err, &unavailableErr) {
			s.metrics.RecordSubmission(string(grade), "failed")
		} else {
			s.metrics.RecordSubmission(string(grade), "rejected")
		}
		return nil, err
	}

	recordedAt := s.now().UTC()
	dateKey := s.dateKey(recordedAt)
	actor := sub.Actor()

	err = s.repo.UpsertPriceField(ctx, sub.StationID, dateKey, grade, amount, actor, recordedAt)
	if errors.Is(err, repository.ErrDuplicateKey) {
		// Both first writers attempted the insert; the record exists now, so
		// a second attempt lands as a merge.
		s.metrics.MergeRetriesTotal.Inc()
		s.logger.Warn(ctx, "[LEDGER_MERGE_RETRY] Create race detected, retrying as merge", logging.Fields{
			"station_id": sub.StationID,
			"date_key":   dateKey,
			"grade":      string(grade),
		})
		err = s.repo.UpsertPriceField(ctx, sub.StationID, dateKey, grade, amount, actor, recordedAt)
	}
	if err != nil {
		s.metrics.RecordSubmission(string(grade), "failed")
		return nil, fmt.Errorf("failed to record price: %w", err)
	}

	s.metrics.RecordSubmission(string(grade), "accepted")
	s.logger.Info(ctx, "[LEDGER_SUBMIT] Price recorded", logging.Fields{
		"station_id": sub.StationID,
		"date_key":   dateKey,
		"grade":      string(grade),
		"amount":     amount,
		"actor":      actor,
	})

	return &SubmitResult{DateKey: dateKey, StationID: sub.StationID}, nil
}

// ListRecentSnapshot returns the recent cross-station view grouped by date,
// joined with the station directory.
func (s *LedgerService) ListRecentSnapshot(ctx context.Context, limit int) (*Snapshot, error) {
	timer := time.Now()
	defer func() {
		s.metrics.SnapshotQueryDuration.Observe(time.Since(timer).Seconds())
	}()

	records, err := s.repo.QueryRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	stations, err := s.repo.ListStations(ctx)
	if err != nil {
		return nil, err
	}

	history := projection.GroupByDate(records)

	return &Snapshot{
		Stations: stations,
		History:  history,
		Dates:    projection.SortedDatesDesc(history),
	}, nil
}

// ListStationSeries returns one station's recent price history ascending by
// date, with never-written grades reported as null.
func (s *LedgerService) ListStationSeries(ctx context.Context, stationID string, limit int) (*Series, error) {
	timer := time.Now()
	defer func() {
		s.metrics.SeriesQueryDuration.Observe(time.Since(timer).Seconds())
	}()

	station, err := s.repo.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.QueryByStation(ctx, stationID, limit)
	if err != nil {
		return nil, err
	}

	return &Series{
		Station: station.Name,
		Data:    projection.ToSeries(records),
	}, nil
}

// HealthCheck probes the backing store, for readiness reporting.
func (s *LedgerService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
