package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"snowwatch/internal/models"
)

const (
	baseURL = "https://api.open-meteo.com/v1/forecast"

	// forecastDays is the most Open-Meteo serves; the detector uses the first 11
	forecastDays = 16
)

// DailyFields are the three daily variables the snow score is built from
var DailyFields = []string{"precipitation_probability_max", "temperature_2m_min", "snowfall_sum"}

// OpenMeteoClient is a client for the Open-Meteo forecast API
type OpenMeteoClient struct {
	http    *httpClient
	baseURL string
}

type ForecastParams struct {
	Latitude        float64
	Longitude       float64
	DailyFields     []string
	Timezone        string
	TemperatureUnit string
	ForecastDays    int // how many days in the future you want to forecast
}

// NewOpenMeteoClient creates a new Open-Meteo API client
func NewOpenMeteoClient(timeout time.Duration) *OpenMeteoClient {
	return &OpenMeteoClient{
		http:    newHTTPClient("open-meteo-forecast", timeout),
		baseURL: baseURL,
	}
}

// GetForecast fetches forecast data for the given parameters
func (c *OpenMeteoClient) GetForecast(ctx context.Context, forecastParams ForecastParams) (*models.Forecast, error) {
	body, err := c.http.get(ctx, c.BuildURL(forecastParams))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	var forecast models.Forecast
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &forecast, nil
}

// Builds URL for OpenMeteoClient request
func (c *OpenMeteoClient) BuildURL(forecastParams ForecastParams) string {
	if forecastParams.Timezone == "" {
		forecastParams.Timezone = "auto"
	}

	if forecastParams.TemperatureUnit == "" {
		forecastParams.TemperatureUnit = "celsius"
	}

	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&timezone=%s&temperature_unit=%s",
		c.baseURL, forecastParams.Latitude, forecastParams.Longitude, forecastParams.Timezone, forecastParams.TemperatureUnit)

	if forecastParams.ForecastDays > 0 {
		url += fmt.Sprintf("&forecast_days=%d", forecastParams.ForecastDays)
	}

	if len(forecastParams.DailyFields) > 0 {
		url += "&daily=" + strings.Join(forecastParams.DailyFields, ",")
	}

	return url
}

// FetchDaily returns one raw point per forecast day, today first
func (c *OpenMeteoClient) FetchDaily(ctx context.Context, latitude, longitude float64) ([]models.RawDailyPoint, error) {
	forecast, err := c.GetForecast(ctx, ForecastParams{
		Latitude:     latitude,
		Longitude:    longitude,
		DailyFields:  DailyFields,
		ForecastDays: forecastDays,
	})
	if err != nil {
		return nil, err
	}
	return forecast.Daily.Points(), nil
}
