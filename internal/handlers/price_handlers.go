package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"fuelprice-platform/internal/models"
	"fuelprice-platform/internal/repository"
	"fuelprice-platform/internal/services"
	"fuelprice-platform/pkg/logging"
	"fuelprice-platform/pkg/metrics"
)

// PriceHandler handles fuel price API endpoints
type PriceHandler struct {
	ledgerService    *services.LedgerService
	directoryService *services.DirectoryService
	logger           *logging.StructuredLogger
	metrics          *metrics.Collector
	snapshotLimit    int
	seriesLimit      int
}

// NewPriceHandler creates a new price handler. snapshotLimit and seriesLimit
// are the configured window defaults applied when a request carries no limit
// parameter; non-positive values fall back to the repository defaults.
func NewPriceHandler(
	ledgerService *services.LedgerService,
	directoryService *services.DirectoryService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
	snapshotLimit, seriesLimit int,
) *PriceHandler {
	if snapshotLimit <= 0 {
		snapshotLimit = repository.DefaultRecentLimit
	}
	if seriesLimit <= 0 {
		seriesLimit = repository.DefaultStationLimit
	}

	return &PriceHandler{
		ledgerService:    ledgerService,
		directoryService: directoryService,
		logger:           logger,
		metrics:          metricsCollector,
		snapshotLimit:    snapshotLimit,
		seriesLimit:      seriesLimit,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// numericString accepts both JSON numbers and numeric strings, since price
// entry clients send either.
type numericString string

func (n *numericString) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" {
		*n = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numericString(s)
		return nil
	}
	*n = numericString(trimmed)
	return nil
}

// submitPriceRequest is the POST /api/prices body.
type submitPriceRequest struct {
	StationID string        `json:"stationId"`
	FuelType  string        `json:"fuelType"`
	Price     numericString `json:"price"`
	UpdatedBy string        `json:"updatedBy"`
}

// submitPriceResponse acknowledges the ledger record a submission landed in.
type submitPriceResponse struct {
	Success   bool   `json:"success"`
	DateKey   string `json:"dateKey"`
	StationID string `json:"stationId"`
}

// SubmitPrice handles POST /api/prices
func (h *PriceHandler) SubmitPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/prices").Observe(duration.Seconds())
	}()

	var req submitPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.ledgerService.SubmitPrice(ctx, models.PriceSubmission{
		StationID: strings.TrimSpace(req.StationID),
		FuelType:  req.FuelType,
		Price:     string(req.Price),
		UpdatedBy: req.UpdatedBy,
	})
	if err != nil {
		h.handleServiceError(w, r, "/api/prices", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/prices", "POST", "200")
	h.sendJSON(w, submitPriceResponse{
		Success:   true,
		DateKey:   result.DateKey,
		StationID: result.StationID,
	}, http.StatusOK)
}

// GetRecentSnapshot handles GET /api/prices/recent
func (h *PriceHandler) GetRecentSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/prices/recent").Observe(duration.Seconds())
	}()

	limit := h.parseLimit(r, h.snapshotLimit)

	snapshot, err := h.ledgerService.ListRecentSnapshot(ctx, limit)
	if err != nil {
		h.handleServiceError(w, r, "/api/prices/recent", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/prices/recent", "GET", "200")
	h.sendJSON(w, snapshot, http.StatusOK)
}

// GetStationSeries handles GET /api/stations/{id}/series
func (h *PriceHandler) GetStationSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/stations/series").Observe(duration.Seconds())
	}()

	stationID := mux.Vars(r)["id"]
	limit := h.parseLimit(r, h.seriesLimit)

	series, err := h.ledgerService.ListStationSeries(ctx, stationID, limit)
	if err != nil {
		h.handleServiceError(w, r, "/api/stations/series", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/stations/series", "GET", "200")
	h.sendJSON(w, series, http.StatusOK)
}

// ListStations handles GET /api/stations
func (h *PriceHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stations, err := h.directoryService.List(ctx)
	if err != nil {
		h.handleServiceError(w, r, "/api/stations", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/stations", "GET", "200")
	h.sendJSON(w, stations, http.StatusOK)
}

// RegisterStation handles POST /api/stations
func (h *PriceHandler) RegisterStation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var station models.Station
	if err := json.NewDecoder(r.Body).Decode(&station); err != nil {
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.directoryService.Register(ctx, &station); err != nil {
		h.handleServiceError(w, r, "/api/stations", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/stations", "POST", "201")
	h.sendJSON(w, station, http.StatusCreated)
}

// HealthCheck handles GET /health
func (h *PriceHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// ReadyCheck handles GET /ready; reports 503 while the store is unreachable.
func (h *PriceHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.ledgerService.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[READY_CHECK] Store not ready", logging.Fields{
			"error": err.Error(),
		})
		h.sendJSON(w, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, map[string]string{"status": "ready"}, http.StatusOK)
}

// parseLimit reads the optional limit query parameter, falling back to the
// endpoint default and capping runaway values.
func (h *PriceHandler) parseLimit(r *http.Request, def int) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return def
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 1000 {
		return def
	}

	return limit
}

// handleServiceError maps the error taxonomy onto HTTP statuses: validation
// failures are 400, unknown stations 404, store outages 503, the rest 500
// with the underlying message attached for diagnostics.
func (h *PriceHandler) handleServiceError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		h.metrics.RecordAPIError("invalid_argument", endpoint)
		h.sendError(w, r, validationErr.Message, http.StatusBadRequest)
		return
	}

	var notFoundErr *repository.NotFoundError
	if errors.As(err, &notFoundErr) {
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, notFoundErr.Error(), http.StatusNotFound)
		return
	}

	var unavailableErr *repository.UnavailableError
	if errors.As(err, &unavailableErr) {
		h.metrics.RecordAPIError("store_unavailable", endpoint)
		h.sendError(w, r, "storage backend unavailable, retry later", http.StatusServiceUnavailable)
		return
	}

	h.logger.Error(r.Context(), "[API_INTERNAL_ERROR] Unexpected failure", logging.Fields{
		"endpoint": endpoint,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)
	h.sendError(w, r, err.Error(), http.StatusInternalServerError)
}

// sendJSON sends a JSON response
func (h *PriceHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *PriceHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RequestIDMiddleware stamps each request with a correlation id for the logs.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), logging.RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RegisterRoutes registers all price API routes
func (h *PriceHandler) RegisterRoutes(router *mux.Router) {
	router.Use(RequestIDMiddleware)

	router.HandleFunc("/api/prices", h.SubmitPrice).Methods("POST")
	router.HandleFunc("/api/prices/recent", h.GetRecentSnapshot).Methods("GET")
	router.HandleFunc("/api/stations", h.ListStations).Methods("GET")
	router.HandleFunc("/api/stations", h.RegisterStation).Methods("POST")
	router.HandleFunc("/api/stations/{id}/series", h.GetStationSeries).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/ready", h.ReadyCheck).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
}
