package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"snowwatch/internal/config"
	"snowwatch/internal/database"
	"snowwatch/internal/logging"
	"snowwatch/internal/tracker"
)

func main() {
	csvPath := flag.String("csv", "locations_seed.csv", "CSV with a name,latitude,longitude header")
	configPath := flag.String("config", "./config.yaml", "path to the YAML config")
	flag.Parse()

	_ = godotenv.Load()
	logger := logging.Must(false)
	defer logger.Sync()

	cfg := config.Default()
	if loaded, err := config.Load(*configPath); err == nil {
		cfg = loaded
	}

	db, err := database.NewDB(config.GetDatabaseDSN())
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	file, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	rows, skipped, err := readLocations(file, logger)
	if err != nil {
		logger.Fatalf("Failed to read CSV: %v", err)
	}

	ctx := context.Background()
	state, err := db.LoadState(ctx)
	if err != nil {
		logger.Fatalf("Failed to load saved locations: %v", err)
	}

	set := tracker.NewLocationSet(state.Locations, tracker.DefaultLocation{
		Name:      cfg.DefaultLocation.Name,
		Latitude:  cfg.DefaultLocation.Latitude,
		Longitude: cfg.DefaultLocation.Longitude,
	})

	existing := make(map[string]bool)
	for _, loc := range set.Snapshot() {
		existing[strings.ToLower(loc.Name)] = true
	}

	count := 0
	for _, row := range rows {
		if existing[strings.ToLower(row.Name)] {
			logger.Infof("Location already exists: %s", row.Name)
			skipped++
			continue
		}
		set.Add(row.Name, row.Latitude, row.Longitude)
		existing[strings.ToLower(row.Name)] = true
		count++
	}

	if err := db.SaveLocations(ctx, set.Snapshot()); err != nil {
		logger.Fatalf("Failed to save locations: %v", err)
	}

	logger.Infof("Import complete! Successfully inserted %d locations, skipped %d", count, skipped)
}

type seedRow struct {
	Name      string  `validate:"required"`
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

var validate = validator.New()

// readLocations parses the CSV after its header row. Invalid records are
// logged and counted as skipped.
func readLocations(r io.Reader, logger *zap.SugaredLogger) ([]seedRow, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	logger.Debugf("CSV Header: %v", header)

	var rows []seedRow
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV record: %w", err)
		}

		row, err := parseRecord(record)
		if err != nil {
			logger.Warnf("Skipping record %v: %v", record, err)
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

func parseRecord(record []string) (seedRow, error) {
	if len(record) < 3 {
		return seedRow{}, errors.New("expected name,latitude,longitude")
	}

	latitude, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return seedRow{}, fmt.Errorf("invalid latitude: %w", err)
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return seedRow{}, fmt.Errorf("invalid longitude: %w", err)
	}

	row := seedRow{Name: strings.TrimSpace(record[0]), Latitude: latitude, Longitude: longitude}
	if err := validate.Struct(row); err != nil {
		return seedRow{}, err
	}
	return row, nil
}
