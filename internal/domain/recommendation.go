package domain

import "time"

// CropScore is the suitability of one crop profile for a measurement
type CropScore struct {
	Crop   string  `json:"crop"`
	Score  float64 `json:"score"` // percentage 0-100
	Season string  `json:"season"`
}

// CropRecommendation is the result of crop matching
type CropRecommendation struct {
	Crop       string   `json:"crop"`
	Confidence float64  `json:"confidence"` // 0-1
	Alternates []string `json:"alternates"`
	Reasoning  string   `json:"reasoning"`
}

// FertilizerPlan is a fertilizer product with its dosage and application timing
type FertilizerPlan struct {
	Type   string `json:"type"`
	Dosage string `json:"dosage"`
	Timing string `json:"timing"`
}

// ConfidenceInterval is a symmetric band around a yield estimate
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// YieldEstimate is a predicted yield in tons/hectare with per-factor ratings
type YieldEstimate struct {
	Yield              float64            `json:"yield"`
	ConfidenceInterval ConfidenceInterval `json:"confidenceInterval"`
	Factors            map[string]string  `json:"factors"`
}

// PredictCropRequest references a stored measurement. A missing id is reported
// as not found, not as a malformed request.
type PredictCropRequest struct {
	SoilDataID string `json:"soil_data_id"`
}

// PredictForCropRequest references a stored measurement and the chosen crop
type PredictForCropRequest struct {
	SoilDataID string `json:"soil_data_id"`
	Crop       string `json:"crop"`
}

// CropRecommendationRecord is a persisted crop_recommendations row
type CropRecommendationRecord struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	MeasurementID string `json:"soil_data_id"`
	CropRecommendation
	CreatedAt time.Time `json:"created_at"`
}

// FertilizerRecord is a persisted fertilizer_recommendations row
type FertilizerRecord struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	MeasurementID string `json:"soil_data_id"`
	Crop          string `json:"crop_type"`
	FertilizerPlan
	CreatedAt time.Time `json:"created_at"`
}

// YieldRecord is a persisted yield_predictions row
type YieldRecord struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	MeasurementID string `json:"soil_data_id"`
	Crop          string `json:"crop_type"`
	YieldEstimate
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is one line of a user's prediction history
type HistoryEntry struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	SoilData   *MeasurementRecord `json:"soil_data,omitempty"`
	Crop       string             `json:"crop"`
	Fertilizer string             `json:"fertilizer"`
	Yield      float64            `json:"yield"`
}
