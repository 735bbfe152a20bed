package models

import "time"

// Forecast represents daily forecast data from the Open-Meteo API
type Forecast struct {
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	Timezone         string     `json:"timezone"`
	DailyUnits       DailyUnits `json:"daily_units"`
	Daily            Daily      `json:"daily"`
	GenerationTimeMs float64    `json:"generation_time_ms"`
}

type DailyUnits struct {
	Time                        string `json:"time"`
	PrecipitationProbabilityMax string `json:"precipitation_probability_max"`
	Temperature2mMin            string `json:"temperature_2m_min"`
	SnowfallSum                 string `json:"snowfall_sum"`
}

// Daily holds the parallel daily arrays. Open-Meteo returns null for days
// a model does not cover, hence the pointer elements.
type Daily struct {
	Time                        []string   `json:"time"`
	PrecipitationProbabilityMax []*int     `json:"precipitation_probability_max"`
	Temperature2mMin            []*float64 `json:"temperature_2m_min"`
	SnowfallSum                 []*float64 `json:"snowfall_sum"`
}

// Points zips the daily arrays into one RawDailyPoint per date. Arrays
// shorter than Time leave the missing fields nil.
func (d Daily) Points() []RawDailyPoint {
	points := make([]RawDailyPoint, len(d.Time))
	for i, date := range d.Time {
		p := RawDailyPoint{Date: date}
		if i < len(d.PrecipitationProbabilityMax) {
			p.PrecipitationProbability = d.PrecipitationProbabilityMax[i]
		}
		if i < len(d.Temperature2mMin) {
			p.MinTemperatureC = d.Temperature2mMin[i]
		}
		if i < len(d.SnowfallSum) {
			p.SnowfallCm = d.SnowfallSum[i]
		}
		points[i] = p
	}
	return points
}

// RawDailyPoint is one upstream day, fields nil when absent
type RawDailyPoint struct {
	Date                     string   `json:"date"`
	PrecipitationProbability *int     `json:"precipitation_probability,omitempty"`
	MinTemperatureC          *float64 `json:"min_temperature_c,omitempty"`
	SnowfallCm               *float64 `json:"snowfall_cm,omitempty"`
}

// ForecastDay is one day of the display series
type ForecastDay struct {
	Date            string  `json:"date"`
	DisplayDate     string  `json:"display_date"`
	SnowProbability int     `json:"snow_probability"`
	MinTemperatureC float64 `json:"min_temperature_c"`
	SnowfallCm      float64 `json:"snowfall_cm"`
}

// Location is a tracked place and its cached forecast state
type Location struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Latitude        float64       `json:"latitude"`
	Longitude       float64       `json:"longitude"`
	AlertsEnabled   bool          `json:"alerts_enabled"`
	LastChecked     *time.Time    `json:"last_checked,omitempty"`
	SnowProbability int           `json:"snow_probability"`
	HasSnowExpected bool          `json:"has_snow_expected"`
	Forecast        string        `json:"forecast,omitempty"`
	DailyForecasts  []ForecastDay `json:"daily_forecasts"`
}

// SnowDay is a day in the alert window that qualified as snowy
type SnowDay struct {
	Date            string  `json:"date"`
	DisplayDate     string  `json:"display_date"`
	SnowProbability int     `json:"snow_probability"`
	SnowfallCm      float64 `json:"snowfall_cm"`
}

// AlertCandidate is a day eligible for a push notification
type AlertCandidate struct {
	Date            string  `json:"date"`
	DisplayDate     string  `json:"display_date"`
	SnowProbability int     `json:"snow_probability"`
	SnowfallCm      float64 `json:"snowfall_cm"`
}

// Evaluation is the outcome of scanning one location's forecast
type Evaluation struct {
	WindowMaxProbability int              `json:"window_max_probability"`
	HasSnowInWindow      bool             `json:"has_snow_in_window"`
	WindowSummary        string           `json:"window_summary"`
	SnowDays             []SnowDay        `json:"snow_days"`
	Candidates           []AlertCandidate `json:"candidates"`
}

// NotificationKey identifies a fired notification for one calendar day
type NotificationKey struct {
	LocationName string `json:"location_name"`
	DisplayDate  string `json:"display_date"`
	FiredOn      string `json:"fired_on"` // 2006-01-02
}

func (k NotificationKey) String() string {
	return k.LocationName + "|" + k.DisplayDate + "|" + k.FiredOn
}

// Notification is what gets handed to a delivery channel
type Notification struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Body     string `json:"body"`
}

// Place is a geocoding candidate
type Place struct {
	Name      string  `json:"name"`
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// State is everything persisted between runs
type State struct {
	Locations        []Location
	NotificationKeys []NotificationKey
}
