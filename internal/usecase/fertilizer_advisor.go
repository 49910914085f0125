package usecase

import (
	"fmt"
	"math"

	"github.com/cropadvisor/backend/internal/domain"
)

// Deficit thresholds (kg/ha) for the fertilizer decision rules
const (
	complexNitrogenDeficit  = 20.0
	complexSecondaryDeficit = 10.0
	ureaNitrogenDeficit     = 15.0
	phosphateDeficit        = 10.0
	potashDeficit           = 10.0
	maintenanceDoseKgPerHa  = 50.0
	acidicSoilPH            = 6.0
	alkalineSoilPH          = 7.5
)

// Dosage multipliers convert a nutrient deficit into product weight
const (
	complexDoseFactor   = 2.0
	ureaDoseFactor      = 2.2  // urea is 46% N
	phosphateDoseFactor = 6.25 // SSP is 16% P2O5
	potashDoseFactor    = 1.67 // MOP is 60% K2O
)

// Fertilizer products
const (
	FertilizerNPKComplex  = "NPK Complex (20-20-20)"
	FertilizerUrea        = "Urea (46-0-0)"
	FertilizerSSP         = "Single Super Phosphate (SSP 16% P2O5)"
	FertilizerMOP         = "Muriate of Potash (MOP 60% K2O)"
	FertilizerMaintenance = "Balanced NPK (12-32-16)"
)

const (
	limeAdvisory   = " | Note: Consider applying lime to increase soil pH before fertilization."
	sulfurAdvisory = " | Note: Consider adding sulfur or organic matter to reduce soil pH."
)

// NutrientDeficits is the shortfall of each nutrient below a crop's target
type NutrientDeficits struct {
	Nitrogen   float64
	Phosphorus float64
	Potassium  float64
}

// ComputeDeficits returns max(0, target - actual) for each nutrient.
// Unknown crops use the default target.
func ComputeDeficits(crop string, n, p, k float64) NutrientDeficits {
	target, _ := domain.LookupNutrientTarget(crop)
	return NutrientDeficits{
		Nitrogen:   math.Max(0, target.Nitrogen-n),
		Phosphorus: math.Max(0, target.Phosphorus-p),
		Potassium:  math.Max(0, target.Potassium-k),
	}
}

// RecommendFertilizer picks a fertilizer product, dosage and timing for crop
// from the N/P/K deficits, then appends a pH advisory when the soil is too
// acidic or too alkaline.
func RecommendFertilizer(crop string, n, p, k, ph float64) domain.FertilizerPlan {
	d := ComputeDeficits(crop, n, p, k)

	var plan domain.FertilizerPlan
	switch {
	case d.Nitrogen > complexNitrogenDeficit && d.Phosphorus > complexSecondaryDeficit && d.Potassium > complexSecondaryDeficit:
		plan = domain.FertilizerPlan{
			Type:   FertilizerNPKComplex,
			Dosage: formatDosage(math.Max(d.Nitrogen, math.Max(d.Phosphorus, d.Potassium)) * complexDoseFactor),
			Timing: "Apply 50% at sowing/planting and 50% 30 days after planting",
		}
	case d.Nitrogen > ureaNitrogenDeficit:
		plan = domain.FertilizerPlan{
			Type:   FertilizerUrea,
			Dosage: formatDosage(d.Nitrogen * ureaDoseFactor),
			Timing: "Split application: 1/3 at sowing, 1/3 at 30 days, 1/3 at 60 days",
		}
	case d.Phosphorus > phosphateDeficit:
		plan = domain.FertilizerPlan{
			Type:   FertilizerSSP,
			Dosage: formatDosage(d.Phosphorus * phosphateDoseFactor),
			Timing: "Apply at time of sowing/planting as basal dose",
		}
	case d.Potassium > potashDeficit:
		plan = domain.FertilizerPlan{
			Type:   FertilizerMOP,
			Dosage: formatDosage(d.Potassium * potashDoseFactor),
			Timing: "Apply 50% at sowing and 50% at flowering stage",
		}
	default:
		plan = domain.FertilizerPlan{
			Type:   FertilizerMaintenance,
			Dosage: formatDosage(maintenanceDoseKgPerHa),
			Timing: "Apply at sowing/planting as maintenance dose",
		}
	}

	plan.Timing += phAdvisory(ph)
	return plan
}

func phAdvisory(ph float64) string {
	switch {
	case ph < acidicSoilPH:
		return limeAdvisory
	case ph > alkalineSoilPH:
		return sulfurAdvisory
	}
	return ""
}

// formatDosage rounds half away from zero to whole kilograms.
func formatDosage(kgPerHa float64) string {
	return fmt.Sprintf("%.0f kg/hectare", math.Round(kgPerHa))
}
