// Package checker runs weather check cycles over the tracked locations.
package checker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"snowwatch/internal/detector"
	"snowwatch/internal/metrics"
	"snowwatch/internal/models"
	"snowwatch/internal/notify"
	"snowwatch/internal/tracker"
)

// ForecastFetcher returns daily points for coordinates, today first
type ForecastFetcher interface {
	FetchDaily(ctx context.Context, latitude, longitude float64) ([]models.RawDailyPoint, error)
}

// LocationStore persists the tracked locations after a cycle
type LocationStore interface {
	SaveLocations(ctx context.Context, locations []models.Location) error
}

type Options struct {
	FetchTimeout time.Duration
	Concurrency  int
	Clock        clockwork.Clock
}

// Checker owns the check cycle. Only one cycle runs at a time; triggers that
// arrive while one is running are dropped.
type Checker struct {
	locations *tracker.LocationSet
	fetcher   ForecastFetcher
	deduper   *notify.Deduper
	notifier  notify.Notifier
	store     LocationStore
	logger    *zap.SugaredLogger

	fetchTimeout time.Duration
	concurrency  int
	clock        clockwork.Clock

	checking atomic.Bool
}

func New(locations *tracker.LocationSet, fetcher ForecastFetcher, deduper *notify.Deduper, notifier notify.Notifier,
	store LocationStore, logger *zap.SugaredLogger, opts Options) *Checker {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Checker{
		locations:    locations,
		fetcher:      fetcher,
		deduper:      deduper,
		notifier:     notifier,
		store:        store,
		logger:       logger,
		fetchTimeout: opts.FetchTimeout,
		concurrency:  opts.Concurrency,
		clock:        opts.Clock,
	}
}

// IsChecking reports whether a cycle is in flight
func (c *Checker) IsChecking() bool {
	return c.checking.Load()
}

// Run checks immediately and then on every tick of interval until ctx is done
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.RunCycle(ctx)

	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.RunCycle(ctx)
		}
	}
}

type fetchResult struct {
	points []models.RawDailyPoint
	err    error
}

// RunCycle checks every tracked location once. It returns false without doing
// anything if another cycle is already running.
func (c *Checker) RunCycle(ctx context.Context) bool {
	if !c.checking.CompareAndSwap(false, true) {
		c.logger.Debug("Check already in progress, skipping trigger")
		metrics.RecordCycle("skipped", 0)
		return false
	}
	defer c.checking.Store(false)

	start := c.clock.Now()
	locs := c.locations.Snapshot()
	results := c.fetchAll(ctx, locs)

	failed, delivered := 0, 0
	for i, loc := range locs {
		if results[i].err != nil {
			failed++
			c.logger.Warnw("Failed to fetch forecast, keeping previous state",
				"location", loc.Name, "error", results[i].err)
			continue
		}

		updated, eval, ok := c.applyForecast(loc, results[i].points)
		if !ok || !updated.AlertsEnabled {
			continue
		}
		delivered += c.notifyCandidates(ctx, updated.Name, eval.Candidates)
	}

	if err := c.store.SaveLocations(ctx, c.locations.Snapshot()); err != nil {
		c.logger.Errorw("Failed to save locations", "error", err)
	}

	duration := c.clock.Since(start)
	metrics.RecordCycle("completed", duration)
	c.logger.Infof("Check complete in %.1fs: %d locations, %d fetch errors, %d notifications",
		duration.Seconds(), len(locs), failed, delivered)

	return true
}

// fetchAll fetches every location concurrently. A failure is recorded for its
// own location only.
func (c *Checker) fetchAll(ctx context.Context, locs []models.Location) []fetchResult {
	results := make([]fetchResult, len(locs))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, loc := range locs {
		i, loc := i, loc
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
			defer cancel()

			points, err := c.fetcher.FetchDaily(fetchCtx, loc.Latitude, loc.Longitude)
			metrics.RecordFetch(err)
			results[i] = fetchResult{points: points, err: err}
			return nil
		})
	}
	g.Wait()

	return results
}

func (c *Checker) applyForecast(loc models.Location, points []models.RawDailyPoint) (models.Location, models.Evaluation, bool) {
	days := detector.BuildForecast(points)
	eval := detector.Evaluate(points, days)

	updated, err := c.locations.ApplyForecast(loc.ID, days, eval, c.clock.Now())
	if err != nil {
		// removed while the cycle was fetching
		c.logger.Debugw("Location gone before update", "location", loc.Name, "error", err)
		return models.Location{}, models.Evaluation{}, false
	}

	metrics.LocationSnowProbability.WithLabelValues(updated.Name).Set(float64(updated.SnowProbability))
	c.logger.Debugw("Forecast updated",
		"location", updated.Name,
		"days", len(days),
		"window_max", eval.WindowMaxProbability,
		"summary", eval.WindowSummary,
	)
	return updated, eval, true
}

// notifyCandidates delivers every candidate not yet fired today and returns
// how many were delivered. Failed deliveries are not recorded so the next
// cycle retries them.
func (c *Checker) notifyCandidates(ctx context.Context, locationName string, candidates []models.AlertCandidate) int {
	delivered := 0
	for _, candidate := range candidates {
		key := c.deduper.Key(locationName, candidate.DisplayDate)
		if !c.deduper.ShouldFire(key) {
			metrics.RecordNotification("suppressed")
			continue
		}

		if err := c.notifier.Deliver(ctx, notify.SnowAlert(locationName, candidate)); err != nil {
			metrics.RecordNotification("failed")
			c.logger.Warnw("Failed to deliver notification", "location", locationName, "date", candidate.Date, "error", err)
			continue
		}
		metrics.RecordNotification("delivered")
		delivered++

		if err := c.deduper.RecordFired(ctx, key); err != nil {
			c.logger.Warnw("Failed to persist notification key", "key", key.String(), "error", err)
		}
	}
	return delivered
}
