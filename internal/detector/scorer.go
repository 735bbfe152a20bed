package detector

import "snowwatch/internal/models"

const (
	// FreezingThresholdC approximates 35°F; colder minimums let precipitation fall as snow
	FreezingThresholdC = 2.0

	// AlertThreshold is the probability a day must exceed to count as snowy
	AlertThreshold = 20

	defaultPrecipitationProbability = 0
	defaultMinTemperatureC          = 10.0
	defaultSnowfallCm               = 0.0
)

// Score converts raw daily fields into an effective snow probability (0-100).
// Any forecast snowfall overrides the probability; otherwise precipitation only
// counts when the minimum temperature is below freezing.
func Score(precipProb int, minTempC, snowfallCm float64) int {
	if snowfallCm > 0 {
		return 100
	}
	if minTempC < FreezingThresholdC {
		return precipProb
	}
	return 0
}

// fields returns the point's values with absent ones defaulted
func fields(p models.RawDailyPoint) (precipProb int, minTempC, snowfallCm float64) {
	precipProb = defaultPrecipitationProbability
	minTempC = defaultMinTemperatureC
	snowfallCm = defaultSnowfallCm

	if p.PrecipitationProbability != nil {
		precipProb = *p.PrecipitationProbability
	}
	if p.MinTemperatureC != nil {
		minTempC = *p.MinTemperatureC
	}
	if p.SnowfallCm != nil && *p.SnowfallCm > 0 {
		snowfallCm = *p.SnowfallCm
	}
	return precipProb, minTempC, snowfallCm
}
