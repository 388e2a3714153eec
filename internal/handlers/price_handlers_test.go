package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"fuelprice-platform/internal/models"
	"fuelprice-platform/internal/repository"
	"fuelprice-platform/internal/services"
	"fuelprice-platform/pkg/logging"
	"fuelprice-platform/pkg/metrics"
)

// One collector per test binary: promauto registers on the global registry.
var testMetrics = metrics.NewCollector("fuelprice_handlers_test")

func newTestRouterWithLimits(t *testing.T, repo repository.LedgerRepository, snapshotLimit, seriesLimit int) *mux.Router {
	t.Helper()

	logger := logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel)
	logger.SetOutput(io.Discard)

	ledgerService := services.NewLedgerService(repo, logger, testMetrics)
	directoryService := services.NewDirectoryService(repo, logger, testMetrics)
	handler := NewPriceHandler(ledgerService, directoryService, logger, testMetrics, snapshotLimit, seriesLimit)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func newTestRouter(t *testing.T, repo repository.LedgerRepository) *mux.Router {
	t.Helper()
	return newTestRouterWithLimits(t, repo, repository.DefaultRecentLimit, repository.DefaultStationLimit)
}

func seededRepo(t *testing.T) *repository.MemoryRepository {
	t.Helper()

	repo := repository.NewMemoryRepository()
	for _, s := range []models.Station{
		{ID: "1", Name: "Main Street Fuel", Latitude: 40.7, Longitude: -73.9},
		{ID: "2", Name: "Riverside Gas & Go", Latitude: 40.8, Longitude: -73.97},
	} {
		station := s
		if err := repo.UpsertStation(context.Background(), &station); err != nil {
			t.Fatalf("failed to seed station: %v", err)
		}
	}
	return repo
}

func doRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitPrice_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid numeric price",
			body:       `{"stationId":"1","fuelType":"regular","price":3.49,"updatedBy":"Bob"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid string price",
			body:       `{"stationId":"1","fuelType":"diesel","price":"3.99"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "negative price",
			body:       `{"stationId":"1","fuelType":"regular","price":"-5","updatedBy":"Bob"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad grade",
			body:       `{"stationId":"1","fuelType":"kerosene","price":"3.49"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing price",
			body:       `{"stationId":"1","fuelType":"regular"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown station",
			body:       `{"stationId":"999","fuelType":"regular","price":"3.50","updatedBy":"Bob"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed JSON",
			body:       `{"stationId":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, seededRepo(t))
			rec := doRequest(router, "POST", "/api/prices", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if tt.wantStatus == http.StatusOK {
				var resp struct {
					Success   bool   `json:"success"`
					DateKey   string `json:"dateKey"`
					StationID string `json:"stationId"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("invalid response body: %v", err)
				}
				if !resp.Success {
					t.Error("success = false, want true")
				}
				if _, err := time.Parse(models.DateKeyFormat, resp.DateKey); err != nil {
					t.Errorf("dateKey %q is not a calendar date", resp.DateKey)
				}
			} else {
				var resp ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("error payload is not JSON: %v", err)
				}
				if resp.Code != tt.wantStatus {
					t.Errorf("payload code = %d, want %d", resp.Code, tt.wantStatus)
				}
			}
		})
	}
}

func TestGetRecentSnapshot(t *testing.T) {
	repo := seededRepo(t)
	router := newTestRouter(t, repo)

	now := time.Now().UTC()
	dateKey := now.Format(models.DateKeyFormat)
	repo.UpsertPriceField(context.Background(), "1", dateKey, models.GradeRegular, 3.49, "Bob", now)
	repo.UpsertPriceField(context.Background(), "2", dateKey, models.GradeDiesel, 3.99, "Alice", now)

	rec := doRequest(router, "GET", "/api/prices/recent", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var snapshot struct {
		Stations []models.Station                               `json:"stations"`
		History  map[string]map[string]*models.DailyPriceRecord `json:"history"`
		Dates    []string                                       `json:"dates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("invalid snapshot body: %v", err)
	}

	if len(snapshot.Stations) != 2 {
		t.Errorf("got %d stations, want 2", len(snapshot.Stations))
	}
	record := snapshot.History[dateKey]["1"]
	if record == nil || record.Regular == nil || *record.Regular != 3.49 {
		t.Errorf("station 1 record = %+v, want regular 3.49", record)
	}
	if record != nil && record.Midgrade != nil {
		t.Error("unwritten grade must serialize as null, not zero")
	}
}

func TestGetStationSeries(t *testing.T) {
	repo := seededRepo(t)
	router := newTestRouter(t, repo)

	now := time.Now().UTC()
	dateKey := now.Format(models.DateKeyFormat)
	repo.UpsertPriceField(context.Background(), "2", dateKey, models.GradeRegular, 3.49, "Bob", now)

	rec := doRequest(router, "GET", "/api/stations/2/series", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var series struct {
		Station string `json:"station"`
		Data    []struct {
			Date    string   `json:"date"`
			Regular *float64 `json:"regular"`
			Diesel  *float64 `json:"diesel"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
		t.Fatalf("invalid series body: %v", err)
	}

	if series.Station != "Riverside Gas & Go" {
		t.Errorf("station = %q, want directory name", series.Station)
	}
	if len(series.Data) != 1 || series.Data[0].Date != dateKey {
		t.Fatalf("data = %+v, want one point for %s", series.Data, dateKey)
	}
	if series.Data[0].Diesel != nil {
		t.Error("diesel must be null, it was never written")
	}

	rec = doRequest(router, "GET", "/api/stations/999/series", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown station status = %d, want 404", rec.Code)
	}
}

func TestConfiguredLimitsApplyWhenRequestOmitsLimit(t *testing.T) {
	repo := seededRepo(t)
	router := newTestRouterWithLimits(t, repo, 1, 1)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for day := 0; day < 3; day++ {
		at := base.AddDate(0, 0, day)
		repo.UpsertPriceField(context.Background(), "1", at.Format(models.DateKeyFormat),
			models.GradeRegular, 3.0+float64(day)/10, "Bob", at)
	}

	rec := doRequest(router, "GET", "/api/prices/recent", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d, body %s", rec.Code, rec.Body.String())
	}

	var snapshot struct {
		Dates []string `json:"dates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("invalid snapshot body: %v", err)
	}
	if len(snapshot.Dates) != 1 {
		t.Errorf("got %d snapshot dates, want the configured window of 1", len(snapshot.Dates))
	}
	if len(snapshot.Dates) == 1 && snapshot.Dates[0] != "2026-03-03" {
		t.Errorf("snapshot kept %s, want the newest day 2026-03-03", snapshot.Dates[0])
	}

	rec = doRequest(router, "GET", "/api/stations/1/series", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("series status = %d, body %s", rec.Code, rec.Body.String())
	}

	var series struct {
		Data []struct {
			Date string `json:"date"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
		t.Fatalf("invalid series body: %v", err)
	}
	if len(series.Data) != 1 {
		t.Errorf("got %d series points, want the configured window of 1", len(series.Data))
	}

	// An explicit limit parameter still overrides the configured default.
	rec = doRequest(router, "GET", "/api/stations/1/series?limit=3", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
		t.Fatalf("invalid series body: %v", err)
	}
	if len(series.Data) != 3 {
		t.Errorf("explicit limit=3 returned %d points, want 3", len(series.Data))
	}
}

func TestStationEndpoints(t *testing.T) {
	router := newTestRouter(t, seededRepo(t))

	rec := doRequest(router, "GET", "/api/stations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var stations []models.Station
	if err := json.Unmarshal(rec.Body.Bytes(), &stations); err != nil {
		t.Fatalf("invalid listing body: %v", err)
	}
	if len(stations) != 2 {
		t.Errorf("got %d stations, want 2", len(stations))
	}

	rec = doRequest(router, "POST", "/api/stations",
		`{"id":"7","name":"Westside Fuel","latitude":40.71,"longitude":-74.0,"brand":"Shell"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(router, "POST", "/api/stations", `{"id":"","name":"Nameless"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid register status = %d, want 400", rec.Code)
	}
}

// downRepo simulates an unreachable backing store.
type downRepo struct {
	*repository.MemoryRepository
}

func (d *downRepo) GetStation(ctx context.Context, stationID string) (*models.Station, error) {
	return nil, &repository.UnavailableError{Op: "get station", Err: context.DeadlineExceeded}
}

func (d *downRepo) HealthCheck(ctx context.Context) error {
	return &repository.UnavailableError{Op: "health check", Err: context.DeadlineExceeded}
}

func TestStoreUnavailableMapping(t *testing.T) {
	router := newTestRouter(t, &downRepo{repository.NewMemoryRepository()})

	rec := doRequest(router, "POST", "/api/prices",
		`{"stationId":"1","fuelType":"regular","price":"3.49"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("submit during outage status = %d, want 503", rec.Code)
	}

	rec = doRequest(router, "GET", "/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready during outage status = %d, want 503", rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, seededRepo(t))

	for _, path := range []string{"/health", "/ready"} {
		rec := doRequest(router, "GET", path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t, seededRepo(t))

	rec := doRequest(router, "GET", "/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry a generated X-Request-ID")
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want caller-supplied abc-123", got)
	}
}
