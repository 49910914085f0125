package domain

import (
	"fmt"
	"time"
)

// Factor identifies one of the seven soil and climate dimensions.
type Factor int

const (
	FactorNitrogen Factor = iota
	FactorPhosphorus
	FactorPotassium
	FactorPH
	FactorTemperature
	FactorHumidity
	FactorRainfall
)

// FactorCount is the number of measured dimensions.
const FactorCount = 7

// Factors lists every dimension in canonical order.
var Factors = [FactorCount]Factor{
	FactorNitrogen,
	FactorPhosphorus,
	FactorPotassium,
	FactorPH,
	FactorTemperature,
	FactorHumidity,
	FactorRainfall,
}

var factorNames = [FactorCount]string{
	"Nitrogen",
	"Phosphorus",
	"Potassium",
	"pH Level",
	"Temperature",
	"Humidity",
	"Rainfall",
}

// String returns the display name used in yield factor ratings.
func (f Factor) String() string {
	if f < 0 || int(f) >= FactorCount {
		return fmt.Sprintf("Factor(%d)", int(f))
	}
	return factorNames[f]
}

// Measurement is a single set of soil and climate readings
type Measurement struct {
	Nitrogen    float64 `json:"nitrogen"`    // kg/ha
	Phosphorus  float64 `json:"phosphorus"`  // kg/ha
	Potassium   float64 `json:"potassium"`   // kg/ha
	PH          float64 `json:"ph_level"`    // 0-14
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %
	Rainfall    float64 `json:"rainfall"`    // mm
}

// Value returns the reading for the given factor.
func (m Measurement) Value(f Factor) float64 {
	switch f {
	case FactorNitrogen:
		return m.Nitrogen
	case FactorPhosphorus:
		return m.Phosphorus
	case FactorPotassium:
		return m.Potassium
	case FactorPH:
		return m.PH
	case FactorTemperature:
		return m.Temperature
	case FactorHumidity:
		return m.Humidity
	case FactorRainfall:
		return m.Rainfall
	}
	return 0
}

// Validate checks the physical bounds of every reading.
func (m Measurement) Validate() error {
	switch {
	case m.Nitrogen < 0, m.Phosphorus < 0, m.Potassium < 0:
		return fmt.Errorf("%w: nutrient levels must be non-negative", ErrInvalidRequest)
	case m.PH < 0 || m.PH > 14:
		return fmt.Errorf("%w: ph_level must be between 0 and 14", ErrInvalidRequest)
	case m.Humidity < 0 || m.Humidity > 100:
		return fmt.Errorf("%w: humidity must be between 0 and 100", ErrInvalidRequest)
	case m.Rainfall < 0:
		return fmt.Errorf("%w: rainfall must be non-negative", ErrInvalidRequest)
	}
	return nil
}

// MeasurementRecord is a stored measurement owned by a user (the soil_data row)
type MeasurementRecord struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Measurement
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateMeasurementRequest is the payload for submitting new readings
type CreateMeasurementRequest struct {
	Nitrogen    *float64 `json:"nitrogen" binding:"required"`
	Phosphorus  *float64 `json:"phosphorus" binding:"required"`
	Potassium   *float64 `json:"potassium" binding:"required"`
	PH          *float64 `json:"ph_level" binding:"required"`
	Temperature *float64 `json:"temperature" binding:"required"`
	Humidity    *float64 `json:"humidity" binding:"required"`
	Rainfall    *float64 `json:"rainfall" binding:"required"`
	Location    string   `json:"location,omitempty"`
}

// ToMeasurement converts the request into a Measurement. All fields must be set.
func (r *CreateMeasurementRequest) ToMeasurement() (Measurement, error) {
	if r == nil || r.Nitrogen == nil || r.Phosphorus == nil || r.Potassium == nil ||
		r.PH == nil || r.Temperature == nil || r.Humidity == nil || r.Rainfall == nil {
		return Measurement{}, fmt.Errorf("%w: all seven readings are required", ErrInvalidRequest)
	}
	return Measurement{
		Nitrogen:    *r.Nitrogen,
		Phosphorus:  *r.Phosphorus,
		Potassium:   *r.Potassium,
		PH:          *r.PH,
		Temperature: *r.Temperature,
		Humidity:    *r.Humidity,
		Rainfall:    *r.Rainfall,
	}, nil
}
