package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"snowwatch/internal/metrics"
	"snowwatch/internal/models"
)

// DB represents the database connection
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema
// dsn format: "username:password@tcp(host:port)/dbname?parseTime=true"
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	// MySQL doesn't support multiple statements in one Exec, so we need to split them
	statements := []string{
		`CREATE TABLE IF NOT EXISTS locations (
			id VARCHAR(36) PRIMARY KEY,
			position INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			alerts_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			last_checked DATETIME(6) NULL,
			snow_probability INT NOT NULL DEFAULT 0,
			has_snow_expected BOOLEAN NOT NULL DEFAULT FALSE,
			forecast TEXT NULL,
			daily_forecasts JSON NULL,
			INDEX idx_locations_position (position)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS notification_keys (
			location_name VARCHAR(255) NOT NULL,
			display_date VARCHAR(32) NOT NULL,
			fired_on CHAR(10) NOT NULL,
			PRIMARY KEY (location_name, display_date, fired_on)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// LoadState reads the tracked locations, in order, and the fired notification keys
func (db *DB) LoadState(ctx context.Context) (models.State, error) {
	locations, err := db.GetLocations(ctx)
	if err != nil {
		return models.State{}, err
	}

	keys, err := db.GetNotificationKeys(ctx)
	if err != nil {
		return models.State{}, err
	}

	return models.State{Locations: locations, NotificationKeys: keys}, nil
}

// GetLocations retrieves all tracked locations in tracking order
func (db *DB) GetLocations(ctx context.Context) ([]models.Location, error) {
	query := `SELECT id, name, latitude, longitude, alerts_enabled, last_checked, snow_probability, has_snow_expected, forecast, daily_forecasts
	          FROM locations ORDER BY position`
	queryStart := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	metrics.RecordDBQuery("SELECT", "locations", time.Since(queryStart), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var (
			loc         models.Location
			lastChecked sql.NullTime
			forecast    sql.NullString
			daily       []byte
		)
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.AlertsEnabled, &lastChecked,
			&loc.SnowProbability, &loc.HasSnowExpected, &forecast, &daily); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}

		if lastChecked.Valid {
			t := lastChecked.Time
			loc.LastChecked = &t
		}
		loc.Forecast = forecast.String

		loc.DailyForecasts, err = decodeDays(daily)
		if err != nil {
			return nil, fmt.Errorf("failed to decode forecast for %s: %w", loc.Name, err)
		}

		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return locations, nil
}

// SaveLocations replaces the stored locations with the given snapshot
func (db *DB) SaveLocations(ctx context.Context, locations []models.Location) error {
	defer db.recordConnStats()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if committed

	queryStart := time.Now()
	_, err = tx.ExecContext(ctx, `DELETE FROM locations`)
	metrics.RecordDBQuery("DELETE", "locations", time.Since(queryStart), err)
	if err != nil {
		return fmt.Errorf("failed to clear locations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO locations
		(id, position, name, latitude, longitude, alerts_enabled, last_checked, snow_probability, has_snow_expected, forecast, daily_forecasts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, loc := range locations {
		daily, err := encodeDays(loc.DailyForecasts)
		if err != nil {
			return fmt.Errorf("failed to encode forecast for %s: %w", loc.Name, err)
		}

		var lastChecked sql.NullTime
		if loc.LastChecked != nil {
			lastChecked = sql.NullTime{Time: *loc.LastChecked, Valid: true}
		}

		queryStart := time.Now()
		_, err = stmt.ExecContext(ctx, loc.ID, i, loc.Name, loc.Latitude, loc.Longitude, loc.AlertsEnabled, lastChecked,
			loc.SnowProbability, loc.HasSnowExpected, loc.Forecast, daily)
		metrics.RecordDBQuery("INSERT", "locations", time.Since(queryStart), err)
		if err != nil {
			return fmt.Errorf("failed to insert location %s: %w", loc.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetNotificationKeys retrieves every persisted dedup key
func (db *DB) GetNotificationKeys(ctx context.Context) ([]models.NotificationKey, error) {
	query := `SELECT location_name, display_date, fired_on FROM notification_keys`
	queryStart := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	metrics.RecordDBQuery("SELECT", "notification_keys", time.Since(queryStart), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification keys: %w", err)
	}
	defer rows.Close()

	var keys []models.NotificationKey
	for rows.Next() {
		var k models.NotificationKey
		if err := rows.Scan(&k.LocationName, &k.DisplayDate, &k.FiredOn); err != nil {
			return nil, fmt.Errorf("failed to scan notification key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// SaveNotificationKeys replaces the stored dedup keys with the given set
func (db *DB) SaveNotificationKeys(ctx context.Context, keys []models.NotificationKey) error {
	defer db.recordConnStats()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notification_keys`); err != nil {
		return fmt.Errorf("failed to clear notification keys: %w", err)
	}

	for _, k := range keys {
		queryStart := time.Now()
		_, err := tx.ExecContext(ctx, `INSERT INTO notification_keys (location_name, display_date, fired_on) VALUES (?, ?, ?)`,
			k.LocationName, k.DisplayDate, k.FiredOn)
		metrics.RecordDBQuery("INSERT", "notification_keys", time.Since(queryStart), err)
		if err != nil {
			return fmt.Errorf("failed to insert notification key %s: %w", k, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func (db *DB) recordConnStats() {
	stats := db.conn.Stats()
	metrics.UpdateDBConnectionStats(stats.OpenConnections, stats.InUse, stats.Idle)
}

func encodeDays(days []models.ForecastDay) ([]byte, error) {
	if days == nil {
		days = []models.ForecastDay{}
	}
	return json.Marshal(days)
}

func decodeDays(data []byte) ([]models.ForecastDay, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var days []models.ForecastDay
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, err
	}
	return days, nil
}
