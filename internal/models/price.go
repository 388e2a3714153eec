package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DateKeyFormat is the calendar-day bucket key used throughout the ledger.
const DateKeyFormat = "2006-01-02"

// DefaultActor is recorded when a submission carries no actor name.
const DefaultActor = "Staff"

// FuelGrade is one of the four fixed fuel types tracked per station per day.
type FuelGrade string

const (
	GradeRegular  FuelGrade = "regular"
	GradeMidgrade FuelGrade = "midgrade"
	GradePremium  FuelGrade = "premium"
	GradeDiesel   FuelGrade = "diesel"
)

// FuelGrades lists all grades in display order.
var FuelGrades = []FuelGrade{GradeRegular, GradeMidgrade, GradePremium, GradeDiesel}

// ParseFuelGrade validates a raw grade string against the fixed enum.
func ParseFuelGrade(raw string) (FuelGrade, error) {
	switch FuelGrade(strings.ToLower(strings.TrimSpace(raw))) {
	case GradeRegular:
		return GradeRegular, nil
	case GradeMidgrade:
		return GradeMidgrade, nil
	case GradePremium:
		return GradePremium, nil
	case GradeDiesel:
		return GradeDiesel, nil
	default:
		return "", &ValidationError{
			Field:   "fuelType",
			Value:   raw,
			Message: "invalid fuel grade, expected one of regular, midgrade, premium, diesel",
		}
	}
}

// Station represents a fuel station in the directory
// Reference data only: the ledger reads it by id and never mutates it.
type Station struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Address   string    `json:"address,omitempty" db:"address"`
	Brand     string    `json:"brand,omitempty" db:"brand"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DailyPriceRecord is the storage unit of the ledger: one row per (station, day).
// NULL grade columns are represented as nil pointers; a grade never written for the
// day stays nil and must never be conflated with a zero price.
type DailyPriceRecord struct {
	ID         int64     `json:"-" db:"id"`
	StationID  string    `json:"stationId" db:"station_id"`
	PriceDate  string    `json:"date" db:"price_date"`
	Regular    *float64  `json:"regular" db:"regular"`
	Midgrade   *float64  `json:"midgrade" db:"midgrade"`
	Premium    *float64  `json:"premium" db:"premium"`
	Diesel     *float64  `json:"diesel" db:"diesel"`
	RecordedAt time.Time `json:"recordedAt" db:"recorded_at"`
	RecordedBy string    `json:"recordedBy" db:"recorded_by"`
}

// Grade returns the pointer cell for the given grade.
func (r *DailyPriceRecord) Grade(g FuelGrade) *float64 {
	switch g {
	case GradeRegular:
		return r.Regular
	case GradeMidgrade:
		return r.Midgrade
	case GradePremium:
		return r.Premium
	case GradeDiesel:
		return r.Diesel
	default:
		return nil
	}
}

// SetGrade writes a single grade cell, leaving the other three untouched.
func (r *DailyPriceRecord) SetGrade(g FuelGrade, amount float64) {
	v := amount
	switch g {
	case GradeRegular:
		r.Regular = &v
	case GradeMidgrade:
		r.Midgrade = &v
	case GradePremium:
		r.Premium = &v
	case GradeDiesel:
		r.Diesel = &v
	}
}

// PriceSubmission is a single staff-entered price update for one grade.
type PriceSubmission struct {
	StationID string `json:"stationId"`
	FuelType  string `json:"fuelType"`
	Price     string `json:"price"`
	UpdatedBy string `json:"updatedBy"`
}

// Actor returns the normalized actor name, defaulting when absent or blank.
func (s *PriceSubmission) Actor() string {
	actor := strings.TrimSpace(s.UpdatedBy)
	if actor == "" {
		return DefaultActor
	}
	return actor
}

// Amount parses and validates the raw price value.
// Accepts numeric strings since clients send both JSON numbers and strings.
func (s *PriceSubmission) Amount() (float64, error) {
	raw := strings.TrimSpace(s.Price)
	if raw == "" {
		return 0, &ValidationError{
			Field:   "price",
			Value:   s.Price,
			Message: "price is required",
		}
	}

	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, &ValidationError{
			Field:   "price",
			Value:   s.Price,
			Message: "price must be a finite number",
		}
	}

	if amount <= 0 {
		return 0, &ValidationError{
			Field:   "price",
			Value:   s.Price,
			Message: "price must be greater than zero",
		}
	}

	return amount, nil
}

// ValidationError represents a user-correctable input error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
