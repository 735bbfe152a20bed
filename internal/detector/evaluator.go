package detector

import (
	"fmt"
	"strings"

	"snowwatch/internal/models"
)

const (
	windowStart = 5
	windowEnd   = 10

	noSnowSummary = "No snow expected in days 5-10"
)

// Evaluate scans the days 5-10 window of the raw points for the badge value and
// summary, and the full display series for notification candidates.
// It does not consider whether alerts are enabled; callers gate on that.
func Evaluate(points []models.RawDailyPoint, days []models.ForecastDay) models.Evaluation {
	eval := models.Evaluation{}

	end := windowEnd
	if end > len(points)-1 {
		end = len(points) - 1
	}

	for i := windowStart; i <= end; i++ {
		p := points[i]
		precipProb, minTempC, snowfallCm := fields(p)

		effective := Score(precipProb, minTempC, snowfallCm)
		if effective > eval.WindowMaxProbability {
			eval.WindowMaxProbability = effective
		}

		if !isSnowDay(precipProb, minTempC, snowfallCm) {
			continue
		}
		eval.SnowDays = append(eval.SnowDays, models.SnowDay{
			Date:            p.Date,
			DisplayDate:     DisplayDate(p.Date),
			SnowProbability: effective,
			SnowfallCm:      snowfallCm,
		})
	}

	eval.HasSnowInWindow = len(eval.SnowDays) > 0
	eval.WindowSummary = summarize(eval.SnowDays)
	eval.Candidates = Candidates(days)

	return eval
}

// Candidates returns every day of the series above the alert threshold, in order
func Candidates(days []models.ForecastDay) []models.AlertCandidate {
	var candidates []models.AlertCandidate
	for _, d := range days {
		if d.SnowProbability <= AlertThreshold {
			continue
		}
		candidates = append(candidates, models.AlertCandidate{
			Date:            d.Date,
			DisplayDate:     d.DisplayDate,
			SnowProbability: d.SnowProbability,
			SnowfallCm:      d.SnowfallCm,
		})
	}
	return candidates
}

// isSnowDay qualifies on the raw precipitation probability, not the effective score
func isSnowDay(precipProb int, minTempC, snowfallCm float64) bool {
	return snowfallCm > 0 || (precipProb > AlertThreshold && minTempC < FreezingThresholdC)
}

func summarize(snowDays []models.SnowDay) string {
	if len(snowDays) == 0 {
		return noSnowSummary
	}

	parts := make([]string, 0, len(snowDays))
	for _, d := range snowDays {
		if d.SnowfallCm > 0 {
			parts = append(parts, fmt.Sprintf("%s: %.1fcm snow", d.DisplayDate, d.SnowfallCm))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %d%% chance", d.DisplayDate, d.SnowProbability))
		}
	}
	return "Snow possible: " + strings.Join(parts, ", ")
}
