package domain

// NutrientTarget is the N/P/K level (kg/ha) a crop needs before fertilization
type NutrientTarget struct {
	Crop       string  `json:"crop"`
	Nitrogen   float64 `json:"n"`
	Phosphorus float64 `json:"p"`
	Potassium  float64 `json:"k"`
}

// DefaultNutrientTarget applies to crops with no entry in the table.
var DefaultNutrientTarget = NutrientTarget{Crop: "", Nitrogen: 60, Phosphorus: 40, Potassium: 40}

var nutrientTargets = map[string]NutrientTarget{
	CropRice:      {CropRice, 100, 50, 50},
	CropWheat:     {CropWheat, 60, 40, 40},
	CropMaize:     {CropMaize, 80, 45, 45},
	CropCotton:    {CropCotton, 80, 40, 40},
	CropSugarcane: {CropSugarcane, 125, 65, 65},
	CropSoybean:   {CropSoybean, 40, 40, 40},
}

// LookupNutrientTarget returns the target for crop or DefaultNutrientTarget.
// The boolean reports whether crop matched a table entry.
func LookupNutrientTarget(crop string) (NutrientTarget, bool) {
	if t, ok := nutrientTargets[crop]; ok {
		return t, true
	}
	return DefaultNutrientTarget, false
}
