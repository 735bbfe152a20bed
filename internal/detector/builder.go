package detector

import (
	"time"

	"snowwatch/internal/models"
)

const (
	// ForecastDays is the length of the display series (offsets 0..10)
	ForecastDays = 11

	dateLayout    = "2006-01-02"
	displayLayout = "Jan 2"
)

// BuildForecast maps raw daily points, ordered by day offset from today,
// into the 11-day display series. Shorter inputs yield fewer days.
func BuildForecast(points []models.RawDailyPoint) []models.ForecastDay {
	n := len(points)
	if n > ForecastDays {
		n = ForecastDays
	}

	days := make([]models.ForecastDay, 0, n)
	for _, p := range points[:n] {
		precipProb, minTempC, snowfallCm := fields(p)
		days = append(days, models.ForecastDay{
			Date:            p.Date,
			DisplayDate:     DisplayDate(p.Date),
			SnowProbability: Score(precipProb, minTempC, snowfallCm),
			MinTemperatureC: minTempC,
			SnowfallCm:      snowfallCm,
		})
	}
	return days
}

// DisplayDate renders an ISO date as "Mar 5". Unparseable input is returned as-is.
func DisplayDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(displayLayout)
}
