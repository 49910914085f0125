package domain

// Canonical crop names shared by every reference table.
const (
	CropRice      = "Rice"
	CropWheat     = "Wheat"
	CropMaize     = "Maize"
	CropCotton    = "Cotton"
	CropSugarcane = "Sugarcane"
	CropSoybean   = "Soybean"
)

// Range is an inclusive acceptable interval for one factor.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Width returns Max - Min.
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// CropProfile describes the conditions under which a crop grows well
type CropProfile struct {
	Name    string               `json:"name"`
	Season  string               `json:"season"`
	Ranges  [FactorCount]Range   `json:"ranges"`
	Weights [FactorCount]float64 `json:"weights"`
}

// DefaultFactorWeights is the importance of each factor in crop matching:
// nutrients weigh most, humidity least.
var DefaultFactorWeights = [FactorCount]float64{1.5, 1.5, 1.5, 1.2, 1.3, 1.0, 1.2}

func profile(name, season string, n, p, k, ph, temp, humidity, rainfall Range) CropProfile {
	return CropProfile{
		Name:    name,
		Season:  season,
		Ranges:  [FactorCount]Range{n, p, k, ph, temp, humidity, rainfall},
		Weights: DefaultFactorWeights,
	}
}

// cropProfiles is ordered; ties in crop matching keep this order.
var cropProfiles = []CropProfile{
	profile(CropRice, "Kharif (Monsoon)",
		Range{80, 120}, Range{40, 60}, Range{40, 60}, Range{5.5, 7.0},
		Range{20, 35}, Range{80, 90}, Range{150, 300}),
	profile(CropWheat, "Rabi (Winter)",
		Range{40, 80}, Range{30, 50}, Range{30, 50}, Range{6.0, 7.5},
		Range{15, 25}, Range{50, 70}, Range{50, 100}),
	profile(CropMaize, "Kharif",
		Range{60, 100}, Range{30, 60}, Range{30, 60}, Range{5.5, 7.0},
		Range{18, 27}, Range{60, 80}, Range{50, 100}),
	profile(CropCotton, "Kharif",
		Range{60, 100}, Range{30, 50}, Range{30, 50}, Range{6.0, 8.0},
		Range{21, 30}, Range{50, 80}, Range{50, 100}),
	profile(CropSugarcane, "Year-round",
		Range{100, 150}, Range{50, 80}, Range{50, 80}, Range{6.0, 7.5},
		Range{20, 35}, Range{70, 90}, Range{100, 200}),
	profile(CropSoybean, "Kharif",
		Range{30, 50}, Range{30, 50}, Range{30, 50}, Range{6.0, 7.0},
		Range{20, 30}, Range{60, 80}, Range{50, 100}),
}

// CropProfiles returns a copy of the built-in profiles in table order.
func CropProfiles() []CropProfile {
	out := make([]CropProfile, len(cropProfiles))
	copy(out, cropProfiles)
	return out
}

// CropNames returns the canonical crop names in table order.
func CropNames() []string {
	names := make([]string, len(cropProfiles))
	for i, p := range cropProfiles {
		names[i] = p.Name
	}
	return names
}

// IsKnownCrop reports whether name is a canonical crop key.
func IsKnownCrop(name string) bool {
	for _, p := range cropProfiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

// YieldProfile holds the base yield and optimal growing conditions of a crop
type YieldProfile struct {
	Crop      string               `json:"crop"`
	BaseYield float64              `json:"baseYield"` // tons/hectare
	Optimal   [FactorCount]float64 `json:"optimal"`
}

var yieldProfiles = map[string]YieldProfile{
	CropRice:      {CropRice, 4.5, [FactorCount]float64{100, 50, 50, 6.5, 27, 85, 200}},
	CropWheat:     {CropWheat, 3.5, [FactorCount]float64{60, 40, 40, 6.5, 20, 60, 75}},
	CropMaize:     {CropMaize, 5.0, [FactorCount]float64{80, 45, 45, 6.5, 22, 70, 75}},
	CropCotton:    {CropCotton, 2.5, [FactorCount]float64{80, 40, 40, 7.0, 25, 65, 75}},
	CropSugarcane: {CropSugarcane, 70.0, [FactorCount]float64{125, 65, 65, 6.5, 27, 80, 150}},
	CropSoybean:   {CropSoybean, 2.8, [FactorCount]float64{40, 40, 40, 6.5, 25, 70, 75}},
}

// LookupYieldProfile returns the yield profile for crop, falling back to Wheat
// when the name is not recognized. The boolean reports whether crop matched.
func LookupYieldProfile(crop string) (YieldProfile, bool) {
	if p, ok := yieldProfiles[crop]; ok {
		return p, true
	}
	return yieldProfiles[CropWheat], false
}
