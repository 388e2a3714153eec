package models

import (
	"errors"
	"testing"
)

func TestParseFuelGrade(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    FuelGrade
		wantErr bool
	}{
		{name: "regular", raw: "regular", want: GradeRegular},
		{name: "midgrade", raw: "midgrade", want: GradeMidgrade},
		{name: "premium", raw: "premium", want: GradePremium},
		{name: "diesel", raw: "diesel", want: GradeDiesel},
		{name: "uppercase accepted", raw: "REGULAR", want: GradeRegular},
		{name: "surrounding whitespace accepted", raw: "  diesel ", want: GradeDiesel},
		{name: "unknown grade rejected", raw: "e85", wantErr: true},
		{name: "empty rejected", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFuelGrade(tt.raw)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFuelGrade(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}

			if tt.wantErr {
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					t.Errorf("error should be a ValidationError, got %T", err)
				}
				return
			}

			if got != tt.want {
				t.Errorf("ParseFuelGrade(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPriceSubmission_Amount(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		want    float64
		wantErr bool
	}{
		{name: "plain decimal", price: "3.49", want: 3.49},
		{name: "integer", price: "4", want: 4},
		{name: "whitespace trimmed", price: " 3.99 ", want: 3.99},
		{name: "negative rejected", price: "-5", wantErr: true},
		{name: "zero rejected", price: "0", wantErr: true},
		{name: "non-numeric rejected", price: "cheap", wantErr: true},
		{name: "empty rejected", price: "", wantErr: true},
		{name: "NaN rejected", price: "NaN", wantErr: true},
		{name: "infinity rejected", price: "+Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := PriceSubmission{Price: tt.price}
			got, err := sub.Amount()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Amount() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					t.Errorf("error should be a ValidationError, got %T", err)
				}
				if validationErr != nil && validationErr.IsTransient() {
					t.Error("validation errors must not be transient")
				}
				return
			}

			if got != tt.want {
				t.Errorf("Amount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriceSubmission_Actor(t *testing.T) {
	tests := []struct {
		name      string
		updatedBy string
		want      string
	}{
		{name: "named actor", updatedBy: "Bob", want: "Bob"},
		{name: "trimmed", updatedBy: "  Bob  ", want: "Bob"},
		{name: "empty defaults", updatedBy: "", want: DefaultActor},
		{name: "blank defaults", updatedBy: "   ", want: DefaultActor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := PriceSubmission{UpdatedBy: tt.updatedBy}
			if got := sub.Actor(); got != tt.want {
				t.Errorf("Actor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDailyPriceRecord_SetGrade(t *testing.T) {
	record := &DailyPriceRecord{StationID: "1", PriceDate: "2026-03-01"}

	record.SetGrade(GradeRegular, 3.49)
	record.SetGrade(GradeDiesel, 3.99)

	if record.Regular == nil || *record.Regular != 3.49 {
		t.Errorf("Regular = %v, want 3.49", record.Regular)
	}
	if record.Diesel == nil || *record.Diesel != 3.99 {
		t.Errorf("Diesel = %v, want 3.99", record.Diesel)
	}
	if record.Midgrade != nil {
		t.Error("Midgrade should stay nil until first written")
	}
	if record.Premium != nil {
		t.Error("Premium should stay nil until first written")
	}

	// Last write wins per grade.
	record.SetGrade(GradeRegular, 3.59)
	if *record.Regular != 3.59 {
		t.Errorf("Regular after rewrite = %v, want 3.59", *record.Regular)
	}
	if *record.Diesel != 3.99 {
		t.Errorf("Diesel must survive a regular rewrite, got %v", *record.Diesel)
	}

	for _, grade := range FuelGrades {
		record.SetGrade(grade, 1.0)
		if cell := record.Grade(grade); cell == nil || *cell != 1.0 {
			t.Errorf("Grade(%v) = %v, want 1.0", grade, cell)
		}
	}
}
