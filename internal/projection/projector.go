// Package projection reshapes ledger records into the two dashboard read views.
// All functions are pure: no I/O, no clock, no store access.
package projection

import (
	"sort"

	"fuelprice-platform/internal/models"
)

// SeriesPoint is one day of a station's price history. Grades never written
// that day stay nil so the chart can distinguish "no data" from a zero price.
type SeriesPoint struct {
	Date     string   `json:"date"`
	Regular  *float64 `json:"regular"`
	Midgrade *float64 `json:"midgrade"`
	Premium  *float64 `json:"premium"`
	Diesel   *float64 `json:"diesel"`
}

// GroupByDate shapes ledger rows into the snapshot view: per date, per station,
// the single record for that day. If duplicate rows for one (date, station)
// pair ever reach this function, the latest write wins.
func GroupByDate(records []*models.DailyPriceRecord) map[string]map[string]*models.DailyPriceRecord {
	history := make(map[string]map[string]*models.DailyPriceRecord)

	for _, record := range records {
		byStation, ok := history[record.PriceDate]
		if !ok {
			byStation = make(map[string]*models.DailyPriceRecord)
			history[record.PriceDate] = byStation
		}

		existing, ok := byStation[record.StationID]
		if ok && existing.RecordedAt.After(record.RecordedAt) {
			continue
		}
		byStation[record.StationID] = record
	}

	return history
}

// SortedDatesDesc returns the snapshot's date keys newest first, giving
// consumers a deterministic iteration order over the history map.
func SortedDatesDesc(history map[string]map[string]*models.DailyPriceRecord) []string {
	dates := make([]string, 0, len(history))
	for date := range history {
		dates = append(dates, date)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// ToSeries shapes one station's records into a chart series, ascending by date
// regardless of the order the store produced them in.
func ToSeries(records []*models.DailyPriceRecord) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(records))

	for _, record := range records {
		points = append(points, SeriesPoint{
			Date:     record.PriceDate,
			Regular:  record.Regular,
			Midgrade: record.Midgrade,
			Premium:  record.Premium,
			Diesel:   record.Diesel,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	return points
}
