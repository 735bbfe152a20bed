package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"snowwatch/internal/api"
	"snowwatch/internal/detector"
	"snowwatch/internal/models"
)

// forecast prints the scored series for one point without touching any state.
// Handy for checking what a location would show before tracking it.
func main() {
	latitude := flag.Float64("lat", 39.7392, "latitude")
	longitude := flag.Float64("lon", -104.9903, "longitude")
	place := flag.String("place", "", "search for a place by name instead of -lat/-lon")
	raw := flag.Bool("json", false, "print the evaluation as JSON")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *place != "" {
		places, err := api.NewGeocodingClient(15*time.Second).SearchPlaces(ctx, *place)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Using %s (%.4f, %.4f)\n", places[0].Label, places[0].Latitude, places[0].Longitude)
		*latitude, *longitude = places[0].Latitude, places[0].Longitude
	}

	points, err := api.NewOpenMeteoClient(15*time.Second).FetchDaily(ctx, *latitude, *longitude)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	days := detector.BuildForecast(points)
	eval := detector.Evaluate(points, days)

	if *raw {
		jsonData, _ := json.MarshalIndent(struct {
			Days       []models.ForecastDay `json:"days"`
			Evaluation models.Evaluation    `json:"evaluation"`
		}{days, eval}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Print(renderDays(days))
	fmt.Printf("\nDays 5-10 peak: %d%%\n%s\n", eval.WindowMaxProbability, eval.WindowSummary)
}

func renderDays(days []models.ForecastDay) string {
	var out string
	for i, d := range days {
		out += fmt.Sprintf("%2d  %-6s %3d%%  min %5.1f°C  snow %4.1fcm\n", i, d.DisplayDate, d.SnowProbability, d.MinTemperatureC, d.SnowfallCm)
	}
	return out
}
