package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"fuelprice-platform/internal/models"
)

// MemoryRepository is an in-process LedgerRepository used by tests and
// -store=memory runs. The mutex makes each operation atomic per key, matching
// the contract the Postgres implementation gets from its upsert statement.
type MemoryRepository struct {
	mu       sync.Mutex
	stations map[string]*models.Station
	records  map[string]*models.DailyPriceRecord // keyed by stationID + "|" + dateKey
	nextID   int64
}

// NewMemoryRepository creates an empty in-memory ledger repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		stations: make(map[string]*models.Station),
		records:  make(map[string]*models.DailyPriceRecord),
		nextID:   1,
	}
}

func recordKey(stationID, dateKey string) string {
	return stationID + "|" + dateKey
}

// UpsertStation creates or refreshes a station directory entry.
func (m *MemoryRepository) UpsertStation(ctx context.Context, station *models.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *station
	m.stations[station.ID] = &copied
	return nil
}

// GetStation retrieves a station by ID.
func (m *MemoryRepository) GetStation(ctx context.Context, stationID string) (*models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	station, ok := m.stations[stationID]
	if !ok {
		return nil, &NotFoundError{Resource: "station", ID: stationID}
	}

	copied := *station
	return &copied, nil
}

// ListStations retrieves the full station directory ordered by id.
func (m *MemoryRepository) ListStations(ctx context.Context) ([]*models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stations := make([]*models.Station, 0, len(m.stations))
	for _, station := range m.stations {
		copied := *station
		stations = append(stations, &copied)
	}

	sort.Slice(stations, func(i, j int) bool {
		return stations[i].ID < stations[j].ID
	})

	return stations, nil
}

// UpsertPriceField merges a single grade into the (station, date) record while
// holding the lock, so other grades of the same record are never clobbered.
func (m *MemoryRepository) UpsertPriceField(ctx context.Context, stationID, dateKey string, grade models.FuelGrade, amount float64, actor string, recordedAt time.Time) error {
	if _, err := gradeColumn(grade); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(stationID, dateKey)
	record, ok := m.records[key]
	if !ok {
		record = &models.DailyPriceRecord{
			ID:        m.nextID,
			StationID: stationID,
			PriceDate: dateKey,
		}
		m.nextID++
		m.records[key] = record
	}

	record.SetGrade(grade, amount)
	record.RecordedAt = recordedAt
	record.RecordedBy = actor
	return nil
}

// QueryRecent returns records date descending then last-write descending.
func (m *MemoryRepository) QueryRecent(ctx context.Context, limit int) ([]*models.DailyPriceRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	m.mu.Lock()
	records := make([]*models.DailyPriceRecord, 0, len(m.records))
	for _, record := range m.records {
		copied := *record
		records = append(records, &copied)
	}
	m.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].PriceDate != records[j].PriceDate {
			return records[i].PriceDate > records[j].PriceDate
		}
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})

	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// QueryByStation returns the station's most recent window in ascending date order.
func (m *MemoryRepository) QueryByStation(ctx context.Context, stationID string, limit int) ([]*models.DailyPriceRecord, error) {
	if limit <= 0 {
		limit = DefaultStationLimit
	}

	m.mu.Lock()
	records := make([]*models.DailyPriceRecord, 0)
	for _, record := range m.records {
		if record.StationID == stationID {
			copied := *record
			records = append(records, &copied)
		}
	}
	m.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].PriceDate < records[j].PriceDate
	})

	// Keep the newest entries when the window overflows.
	if len(records) > limit {
		records = records[len(records)-limit:]
	}

	return records, nil
}

// HealthCheck always succeeds for the in-memory store.
func (m *MemoryRepository) HealthCheck(ctx context.Context) error {
	return nil
}
