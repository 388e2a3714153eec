package projection

import (
	"testing"
	"time"

	"fuelprice-platform/internal/models"
)

func fptr(v float64) *float64 { return &v }

func record(stationID, date string, regular, diesel *float64, recordedAt time.Time) *models.DailyPriceRecord {
	return &models.DailyPriceRecord{
		StationID:  stationID,
		PriceDate:  date,
		Regular:    regular,
		Diesel:     diesel,
		RecordedAt: recordedAt,
		RecordedBy: "Staff",
	}
}

func TestGroupByDate(t *testing.T) {
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	records := []*models.DailyPriceRecord{
		record("1", "2026-03-02", fptr(3.49), nil, base),
		record("2", "2026-03-02", nil, fptr(3.99), base),
		record("1", "2026-03-01", fptr(3.39), nil, base.AddDate(0, 0, -1)),
	}

	history := GroupByDate(records)

	if len(history) != 2 {
		t.Fatalf("expected 2 date buckets, got %d", len(history))
	}
	if len(history["2026-03-02"]) != 2 {
		t.Errorf("expected 2 stations on 2026-03-02, got %d", len(history["2026-03-02"]))
	}
	if got := history["2026-03-02"]["1"]; got == nil || *got.Regular != 3.49 {
		t.Errorf("station 1 record on 2026-03-02 = %+v, want regular 3.49", got)
	}
	if got := history["2026-03-01"]["1"]; got == nil || *got.Regular != 3.39 {
		t.Errorf("station 1 record on 2026-03-01 = %+v, want regular 3.39", got)
	}
}

func TestGroupByDate_DuplicateRowsLatestWins(t *testing.T) {
	earlier := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	later := earlier.Add(2 * time.Hour)

	history := GroupByDate([]*models.DailyPriceRecord{
		record("1", "2026-03-02", fptr(3.59), nil, later),
		record("1", "2026-03-02", fptr(3.49), nil, earlier),
	})

	got := history["2026-03-02"]["1"]
	if got == nil || *got.Regular != 3.59 {
		t.Errorf("latest write should win, got %+v", got)
	}
}

func TestSortedDatesDesc(t *testing.T) {
	history := GroupByDate([]*models.DailyPriceRecord{
		record("1", "2026-03-01", fptr(3.39), nil, time.Now()),
		record("1", "2026-03-03", fptr(3.49), nil, time.Now()),
		record("1", "2026-03-02", fptr(3.44), nil, time.Now()),
	})

	dates := SortedDatesDesc(history)
	want := []string{"2026-03-03", "2026-03-02", "2026-03-01"}

	if len(dates) != len(want) {
		t.Fatalf("got %d dates, want %d", len(dates), len(want))
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestToSeries_AscendingRegardlessOfInputOrder(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
	}{
		{name: "descending input", dates: []string{"2026-03-03", "2026-03-02", "2026-03-01"}},
		{name: "shuffled input", dates: []string{"2026-03-02", "2026-03-03", "2026-03-01"}},
		{name: "ascending input", dates: []string{"2026-03-01", "2026-03-02", "2026-03-03"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]*models.DailyPriceRecord, 0, len(tt.dates))
			for _, date := range tt.dates {
				records = append(records, record("1", date, fptr(3.49), nil, time.Now()))
			}

			points := ToSeries(records)

			if len(points) != len(tt.dates) {
				t.Fatalf("got %d points, want %d", len(points), len(tt.dates))
			}
			for i := 1; i < len(points); i++ {
				if points[i-1].Date >= points[i].Date {
					t.Errorf("series not ascending: %s before %s", points[i-1].Date, points[i].Date)
				}
			}
		})
	}
}

func TestToSeries_NullVersusZero(t *testing.T) {
	points := ToSeries([]*models.DailyPriceRecord{
		record("1", "2026-03-01", fptr(0), nil, time.Now()),
	})

	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}

	// Zero is a real price; an unwritten grade stays nil.
	if points[0].Regular == nil || *points[0].Regular != 0 {
		t.Errorf("Regular = %v, want explicit 0", points[0].Regular)
	}
	if points[0].Diesel != nil {
		t.Errorf("Diesel = %v, want nil for never-written grade", points[0].Diesel)
	}
	if points[0].Midgrade != nil || points[0].Premium != nil {
		t.Error("unwritten grades must report nil, not zero")
	}
}

func TestToSeries_Empty(t *testing.T) {
	points := ToSeries(nil)
	if points == nil {
		t.Fatal("ToSeries(nil) should return an empty slice, not nil")
	}
	if len(points) != 0 {
		t.Errorf("got %d points, want 0", len(points))
	}
}
