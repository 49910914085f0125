package usecase

import (
	"math"

	"github.com/cropadvisor/backend/internal/domain"
)

// confidenceBand is the half-width of the yield interval as a fraction of the estimate.
const confidenceBand = 0.15

// Rating thresholds applied to each factor multiplier
const (
	ratingTop    = 0.9
	ratingSecond = 0.7
	ratingThird  = 0.5
)

// yieldSensitivity is how strongly a relative deviation from the optimum
// penalizes yield, per factor.
var yieldSensitivity = [domain.FactorCount]float64{
	domain.FactorNitrogen:    0.30,
	domain.FactorPhosphorus:  0.25,
	domain.FactorPotassium:   0.25,
	domain.FactorPH:          0.20,
	domain.FactorTemperature: 0.25,
	domain.FactorHumidity:    0.15,
	domain.FactorRainfall:    0.30,
}

// ratingLabels lists the four labels of each factor from best to worst.
var ratingLabels = [domain.FactorCount][4]string{
	domain.FactorNitrogen:    {"Excellent", "Good", "Fair", "Poor"},
	domain.FactorPhosphorus:  {"Excellent", "Good", "Fair", "Poor"},
	domain.FactorPotassium:   {"Excellent", "Good", "Fair", "Poor"},
	domain.FactorPH:          {"Optimal", "Good", "Fair", "Needs adjustment"},
	domain.FactorTemperature: {"Ideal", "Suitable", "Manageable", "Challenging"},
	domain.FactorHumidity:    {"Ideal", "Suitable", "Acceptable", "Challenging"},
	domain.FactorRainfall:    {"Ideal", "Sufficient", "Adequate", "Insufficient"},
}

// EstimateYield predicts yield in tons/hectare for crop under m. Unknown crops
// use the Wheat profile.
//
// Each factor's multiplier is 1 - |actual-optimal|/optimal * sensitivity.
// Ratings use the raw multiplier; the yield average floors each multiplier at 0.
func EstimateYield(crop string, m domain.Measurement) domain.YieldEstimate {
	profile, _ := domain.LookupYieldProfile(crop)

	factors := make(map[string]string, domain.FactorCount)
	var sum float64
	for _, f := range domain.Factors {
		mult := factorMultiplier(m.Value(f), profile.Optimal[f], yieldSensitivity[f])
		factors[f.String()] = rateFactor(f, mult)
		sum += math.Max(0, mult)
	}

	avg := sum / domain.FactorCount
	predicted := profile.BaseYield * avg
	variance := predicted * confidenceBand

	return domain.YieldEstimate{
		Yield: round2(predicted),
		ConfidenceInterval: domain.ConfidenceInterval{
			Lower: round2(predicted - variance),
			Upper: round2(predicted + variance),
		},
		Factors: factors,
	}
}

func factorMultiplier(actual, optimal, sensitivity float64) float64 {
	deviation := math.Abs(actual - optimal)
	if optimal != 0 {
		deviation /= optimal
	}
	return 1 - deviation*sensitivity
}

func rateFactor(f domain.Factor, mult float64) string {
	labels := ratingLabels[f]
	switch {
	case mult > ratingTop:
		return labels[0]
	case mult > ratingSecond:
		return labels[1]
	case mult > ratingThird:
		return labels[2]
	}
	return labels[3]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
