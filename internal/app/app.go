// Package app wires the configured components together for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"snowwatch/internal/api"
	"snowwatch/internal/checker"
	"snowwatch/internal/config"
	"snowwatch/internal/database"
	"snowwatch/internal/models"
	"snowwatch/internal/notify"
	"snowwatch/internal/tracker"
)

// App holds the long-lived components shared by cmd/snowwatch and cmd/check
type App struct {
	Config    *config.Config
	Logger    *zap.SugaredLogger
	DB        *database.DB
	Redis     *redis.Client
	Locations *tracker.LocationSet
	Deduper   *notify.Deduper
	Checker   *checker.Checker
	Geocoder  *api.GeocodingClient
}

// LoadConfig reads configPath, using the defaults when the file does not exist
func LoadConfig(configPath string, logger *zap.SugaredLogger) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Infow("No config file, using defaults", "path", configPath)
		return config.Default(), nil
	}
	return cfg, err
}

// New connects to MySQL (and Redis when that backend is selected), restores
// the saved state and builds the checker.
func New(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	db, err := database.NewDB(config.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, DB: db}

	notifier, err := a.newNotifier()
	if err != nil {
		db.Close()
		return nil, err
	}

	state, err := db.LoadState(ctx)
	if err != nil {
		// start from the default location rather than refusing to run
		logger.Warnw("Failed to load saved state, starting fresh", "error", err)
		state = models.State{}
	}

	a.Locations = tracker.NewLocationSet(state.Locations, tracker.DefaultLocation{
		Name:      cfg.DefaultLocation.Name,
		Latitude:  cfg.DefaultLocation.Latitude,
		Longitude: cfg.DefaultLocation.Longitude,
	})
	a.Deduper = notify.NewDeduper(db, nil)
	a.Deduper.Load(state.NotificationKeys)

	a.Geocoder = api.NewGeocodingClient(cfg.Check.FetchTimeout)
	a.Checker = checker.New(a.Locations, api.NewOpenMeteoClient(cfg.Check.FetchTimeout), a.Deduper, notifier, db, logger,
		checker.Options{
			FetchTimeout: cfg.Check.FetchTimeout,
			Concurrency:  cfg.Check.Concurrency,
		})

	logger.Infow("State restored",
		"locations", a.Locations.Len(),
		"notification_keys", len(a.Deduper.Keys()),
		"notifications", cfg.Notifications.Backend,
	)
	return a, nil
}

func (a *App) newNotifier() (notify.Notifier, error) {
	if a.Config.Notifications.Backend == "log" {
		return notify.NewLogNotifier(a.Logger), nil
	}

	redisCfg, err := config.GetRedisConfig()
	if err != nil {
		return nil, err
	}
	a.Redis = redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	return notify.NewRedisNotifier(a.Redis, redisCfg.Stream), nil
}

func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Warnw("Failed to close database", "error", err)
	}
	a.Logger.Sync()
}
