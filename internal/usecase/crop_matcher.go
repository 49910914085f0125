package usecase

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cropadvisor/backend/internal/domain"
)

// Crop matching constants
const (
	maxFactorScore          = 100.0 // Points a factor earns when fully in range, before weighting
	lowSuitabilityThreshold = 70.0  // Top scores below this suggest soil amendments
	maxAlternates           = 3
)

// MatchCrop scores the built-in crop profiles against a measurement and returns
// the best match, the next three crops, and a short explanation.
func MatchCrop(m domain.Measurement) domain.CropRecommendation {
	return matchCrop(m, domain.CropProfiles())
}

// RankCrops returns every built-in crop ordered by suitability, best first.
// Equal scores keep reference table order.
func RankCrops(m domain.Measurement) []domain.CropScore {
	return rankCrops(m, domain.CropProfiles())
}

func matchCrop(m domain.Measurement, profiles []domain.CropProfile) domain.CropRecommendation {
	ranked := rankCrops(m, profiles)
	if len(ranked) == 0 {
		return domain.CropRecommendation{Alternates: []string{}}
	}

	top := ranked[0]
	alternates := make([]string, 0, maxAlternates)
	for _, s := range ranked[1:] {
		if len(alternates) == maxAlternates {
			break
		}
		alternates = append(alternates, s.Crop)
	}

	return domain.CropRecommendation{
		Crop:       top.Crop,
		Confidence: top.Score / 100,
		Alternates: alternates,
		Reasoning:  buildReasoning(m, top),
	}
}

func rankCrops(m domain.Measurement, profiles []domain.CropProfile) []domain.CropScore {
	scores := make([]domain.CropScore, 0, len(profiles))
	for _, p := range profiles {
		scores = append(scores, domain.CropScore{
			Crop:   p.Name,
			Score:  scoreProfile(m, p),
			Season: p.Season,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// scoreProfile returns the weighted suitability of m for p as a percentage.
func scoreProfile(m domain.Measurement, p domain.CropProfile) float64 {
	var score, possible float64
	for _, f := range domain.Factors {
		full := maxFactorScore * p.Weights[f]
		possible += full
		score += full * factorSuitability(m.Value(f), p.Ranges[f])
	}
	if possible <= 0 {
		return 0
	}
	return score / possible * 100
}

// factorSuitability is 1 inside the range and decays linearly to 0 at one
// range width beyond either bound.
func factorSuitability(v float64, r domain.Range) float64 {
	if r.Contains(v) {
		return 1
	}

	distance := r.Min - v
	if v > r.Max {
		distance = v - r.Max
	}

	width := r.Width()
	if width <= 0 || math.IsNaN(distance) {
		return 0
	}
	return 1 - math.Min(distance/width, 1)
}

func buildReasoning(m domain.Measurement, top domain.CropScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on your soil nutrient levels (N: %s, P: %s, K: %s) ",
		formatNumber(m.Nitrogen), formatNumber(m.Phosphorus), formatNumber(m.Potassium))
	fmt.Fprintf(&b, "and environmental conditions (pH: %s, Temp: %s°C, ",
		formatNumber(m.PH), formatNumber(m.Temperature))
	fmt.Fprintf(&b, "Humidity: %s%%, Rainfall: %smm), ",
		formatNumber(m.Humidity), formatNumber(m.Rainfall))
	fmt.Fprintf(&b, "%s is the most suitable crop for %s season. ", top.Crop, top.Season)

	if top.Score < lowSuitabilityThreshold {
		b.WriteString("However, soil amendments may be needed to optimize conditions.")
	} else {
		b.WriteString("Your soil conditions are well-suited for this crop.")
	}
	return b.String()
}

// formatNumber prints the shortest decimal that round-trips, so 6.5 stays "6.5" and 100 stays "100".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
