package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"snowwatch/internal/models"
)

const (
	geocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

	searchResultCount = 5
)

// GeocodingClient searches places by name through Open-Meteo's geocoding API
type GeocodingClient struct {
	http    *httpClient
	baseURL string
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
		Admin1    string  `json:"admin1"`
	} `json:"results"`
}

func NewGeocodingClient(timeout time.Duration) *GeocodingClient {
	return &GeocodingClient{
		http:    newHTTPClient("open-meteo-geocoding", timeout),
		baseURL: geocodingURL,
	}
}

func (c *GeocodingClient) BuildURL(text string) string {
	q := url.Values{}
	q.Set("name", text)
	q.Set("count", fmt.Sprint(searchResultCount))
	q.Set("language", "en")
	q.Set("format", "json")
	return c.baseURL + "?" + q.Encode()
}

// SearchPlaces returns candidate places for text, best match first
func (c *GeocodingClient) SearchPlaces(ctx context.Context, text string) ([]models.Place, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("SearchPlaces: empty search text")
	}

	body, err := c.http.get(ctx, c.BuildURL(text))
	if err != nil {
		return nil, fmt.Errorf("failed to search places: %w", err)
	}

	var resp geocodingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%q: %w", text, ErrNoResults)
	}

	places := make([]models.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, models.Place{
			Name:      r.Name,
			Label:     placeLabel(r.Name, r.Admin1, r.Country),
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}
	return places, nil
}

func placeLabel(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
