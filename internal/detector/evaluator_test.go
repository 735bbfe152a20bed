package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_SnowfallOnDayFive(t *testing.T) {
	points := series("2026-02-28", 11)
	points[5].SnowfallCm = floatPtr(2.5)
	for i := 6; i <= 10; i++ {
		points[i].PrecipitationProbability = intPtr(60)
		points[i].MinTemperatureC = floatPtr(7.0)
		points[i].SnowfallCm = floatPtr(0)
	}

	eval := Evaluate(points, BuildForecast(points))

	assert.Equal(t, 100, eval.WindowMaxProbability)
	assert.True(t, eval.HasSnowInWindow)
	require.Len(t, eval.SnowDays, 1)
	assert.Equal(t, "Mar 5", eval.SnowDays[0].DisplayDate)
	assert.Contains(t, eval.WindowSummary, "Mar 5: 2.5cm snow")

	require.Len(t, eval.Candidates, 1)
	assert.Equal(t, "2026-03-05", eval.Candidates[0].Date)
	assert.Equal(t, 100, eval.Candidates[0].SnowProbability)
	assert.Equal(t, 2.5, eval.Candidates[0].SnowfallCm)
}

func TestEvaluate_ShortResponse(t *testing.T) {
	points := series("2026-02-28", 4)
	for i := range points {
		points[i].SnowfallCm = floatPtr(3.0)
	}

	days := BuildForecast(points)
	eval := Evaluate(points, days)

	assert.Len(t, days, 4)
	assert.Equal(t, 0, eval.WindowMaxProbability)
	assert.False(t, eval.HasSnowInWindow)
	assert.Empty(t, eval.SnowDays)
	assert.Equal(t, noSnowSummary, eval.WindowSummary)
	// the display series still produces candidates
	assert.Len(t, eval.Candidates, 4)
}

func TestEvaluate_PartialWindow(t *testing.T) {
	points := series("2026-02-28", 7)
	points[6].PrecipitationProbability = intPtr(30)
	points[6].MinTemperatureC = floatPtr(-2.0)

	eval := Evaluate(points, BuildForecast(points))

	assert.Equal(t, 30, eval.WindowMaxProbability)
	require.Len(t, eval.SnowDays, 1)
	assert.Equal(t, "Snow possible: Mar 6: 30% chance", eval.WindowSummary)
}

func TestEvaluate_CandidateOutsideWindow(t *testing.T) {
	points := series("2026-02-28", 11)
	points[3].PrecipitationProbability = intPtr(45)
	points[3].MinTemperatureC = floatPtr(-1.0)
	points[3].SnowfallCm = floatPtr(0)

	days := BuildForecast(points)
	eval := Evaluate(points, days)

	assert.Equal(t, 45, days[3].SnowProbability)
	require.Len(t, eval.Candidates, 1)
	assert.Equal(t, days[3].DisplayDate, eval.Candidates[0].DisplayDate)

	assert.Empty(t, eval.SnowDays)
	assert.False(t, eval.HasSnowInWindow)
	assert.Equal(t, 0, eval.WindowMaxProbability)
}

func TestEvaluate_ThresholdIsStrict(t *testing.T) {
	points := series("2026-02-28", 11)
	points[7].PrecipitationProbability = intPtr(20)
	points[7].MinTemperatureC = floatPtr(-5.0)

	eval := Evaluate(points, BuildForecast(points))

	// 20 feeds the badge but is neither a snow day nor a candidate
	assert.Equal(t, 20, eval.WindowMaxProbability)
	assert.False(t, eval.HasSnowInWindow)
	assert.Empty(t, eval.Candidates)
}

func TestEvaluate_WarmPrecipitationIsNotSnow(t *testing.T) {
	points := series("2026-02-28", 11)
	for i := range points {
		points[i].PrecipitationProbability = intPtr(95)
		points[i].MinTemperatureC = floatPtr(4.0)
	}

	eval := Evaluate(points, BuildForecast(points))

	assert.Equal(t, 0, eval.WindowMaxProbability)
	assert.False(t, eval.HasSnowInWindow)
	assert.Empty(t, eval.Candidates)
}

func TestEvaluate_IgnoresDaysPastTen(t *testing.T) {
	points := series("2026-02-28", 16)
	points[12].SnowfallCm = floatPtr(10)

	eval := Evaluate(points, BuildForecast(points))

	assert.Equal(t, 0, eval.WindowMaxProbability)
	assert.Empty(t, eval.Candidates)
}

func TestSummarize(t *testing.T) {
	points := series("2026-02-28", 11)
	points[5].SnowfallCm = floatPtr(1.4)
	points[8].PrecipitationProbability = intPtr(55)
	points[8].MinTemperatureC = floatPtr(0.5)

	eval := Evaluate(points, BuildForecast(points))

	assert.Equal(t, "Snow possible: Mar 5: 1.4cm snow, Mar 8: 55% chance", eval.WindowSummary)
}
