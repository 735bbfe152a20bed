package checker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"snowwatch/internal/models"
	"snowwatch/internal/notify"
	"snowwatch/internal/tracker"
)

var errUpstream = errors.New("upstream unavailable")

type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	points []models.RawDailyPoint
	failAt map[float64]error

	entered chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) FetchDaily(ctx context.Context, latitude, _ float64) ([]models.RawDailyPoint, error) {
	f.mu.Lock()
	f.calls++
	err := f.failAt[latitude]
	f.mu.Unlock()

	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		<-f.release
	}
	if err != nil {
		return nil, err
	}
	return f.points, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu        sync.Mutex
	delivered []models.Notification
	err       error
}

func (n *fakeNotifier) Deliver(_ context.Context, notification models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.delivered = append(n.delivered, notification)
	return nil
}

type fakeStore struct {
	mu        sync.Mutex
	locations [][]models.Location
	keys      [][]models.NotificationKey
}

func (s *fakeStore) SaveLocations(_ context.Context, locations []models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = append(s.locations, locations)
	return nil
}

func (s *fakeStore) SaveNotificationKeys(_ context.Context, keys []models.NotificationKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, keys)
	return nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// snowyForecast returns 16 days from Mar 1 with 2.5cm of snow on Mar 6
func snowyForecast() []models.RawDailyPoint {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.RawDailyPoint, 16)
	for i := range points {
		points[i] = models.RawDailyPoint{
			Date:                     start.AddDate(0, 0, i).Format("2006-01-02"),
			PrecipitationProbability: intPtr(5),
			MinTemperatureC:          floatPtr(4),
			SnowfallCm:               floatPtr(0),
		}
	}
	points[5].PrecipitationProbability = intPtr(80)
	points[5].MinTemperatureC = floatPtr(-3)
	points[5].SnowfallCm = floatPtr(2.5)
	return points
}

type fixture struct {
	checker  *Checker
	set      *tracker.LocationSet
	fetcher  *fakeFetcher
	notifier *fakeNotifier
	store    *fakeStore
	clock    *clockwork.FakeClock
}

func newFixture(t *testing.T, locations []models.Location) *fixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local))
	set := tracker.NewLocationSet(locations, tracker.DefaultLocation{Name: "Denver", Latitude: 39.7392, Longitude: -104.9903})
	fetcher := &fakeFetcher{points: snowyForecast()}
	notifier := &fakeNotifier{}
	store := &fakeStore{}
	deduper := notify.NewDeduper(store, clock)

	c := New(set, fetcher, deduper, notifier, store, zap.NewNop().Sugar(), Options{
		FetchTimeout: time.Second,
		Concurrency:  2,
		Clock:        clock,
	})
	return &fixture{checker: c, set: set, fetcher: fetcher, notifier: notifier, store: store, clock: clock}
}

func TestRunCycle_UpdatesLocationState(t *testing.T) {
	f := newFixture(t, nil)

	require.True(t, f.checker.RunCycle(context.Background()))

	locs := f.set.Snapshot()
	require.Len(t, locs, 1)
	loc := locs[0]

	require.NotNil(t, loc.LastChecked)
	assert.True(t, loc.LastChecked.Equal(f.clock.Now()))
	assert.Equal(t, 100, loc.SnowProbability)
	assert.True(t, loc.HasSnowExpected)
	assert.Equal(t, "Snow possible: Mar 6: 2.5cm snow", loc.Forecast)
	assert.Len(t, loc.DailyForecasts, 11)

	require.Len(t, f.store.locations, 1)
	assert.Equal(t, locs, f.store.locations[0])
}

func TestRunCycle_FetchFailureKeepsPreviousState(t *testing.T) {
	f := newFixture(t, []models.Location{
		{ID: "a", Name: "Aspen", Latitude: 39.19, Longitude: -106.82, AlertsEnabled: true,
			SnowProbability: 42, Forecast: "previous"},
		{ID: "b", Name: "Boulder", Latitude: 40.01, Longitude: -105.27},
	})
	f.fetcher.failAt = map[float64]error{39.19: errUpstream}

	require.True(t, f.checker.RunCycle(context.Background()))

	aspen, err := f.set.Get("a")
	require.NoError(t, err)
	assert.Nil(t, aspen.LastChecked)
	assert.Equal(t, 42, aspen.SnowProbability)
	assert.Equal(t, "previous", aspen.Forecast)

	boulder, err := f.set.Get("b")
	require.NoError(t, err)
	assert.NotNil(t, boulder.LastChecked)
	assert.Equal(t, 100, boulder.SnowProbability)

	// Aspen is the alerted location and its fetch failed
	assert.Empty(t, f.notifier.delivered)
}

func TestRunCycle_NotifiesOncePerDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.True(t, f.checker.RunCycle(ctx))
	require.True(t, f.checker.RunCycle(ctx))

	require.Len(t, f.notifier.delivered, 1)
	assert.Equal(t, models.Notification{
		Title:    "Snow Alert: Denver",
		Subtitle: "Mar 6",
		Body:     "100% chance of snow (2.5cm expected)",
	}, f.notifier.delivered[0])

	f.clock.Advance(24 * time.Hour)
	require.True(t, f.checker.RunCycle(ctx))
	assert.Len(t, f.notifier.delivered, 2)
}

func TestRunCycle_FailedDeliveryRetriedNextCycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.notifier.err = errors.New("stream down")
	require.True(t, f.checker.RunCycle(ctx))
	assert.Empty(t, f.notifier.delivered)
	assert.Empty(t, f.store.keys)

	f.notifier.err = nil
	require.True(t, f.checker.RunCycle(ctx))
	assert.Len(t, f.notifier.delivered, 1)
	require.Len(t, f.store.keys, 1)
	assert.Equal(t, "Denver|Mar 6|2026-03-01", f.store.keys[0][0].String())
}

func TestRunCycle_OnlyAlertedLocationNotifies(t *testing.T) {
	f := newFixture(t, []models.Location{
		{ID: "a", Name: "Aspen", Latitude: 39.19, Longitude: -106.82},
		{ID: "b", Name: "Boulder", Latitude: 40.01, Longitude: -105.27, AlertsEnabled: true},
	})

	require.True(t, f.checker.RunCycle(context.Background()))

	require.Len(t, f.notifier.delivered, 1)
	assert.Equal(t, "Snow Alert: Boulder", f.notifier.delivered[0].Title)

	// both locations still get their forecast refreshed
	for _, loc := range f.set.Snapshot() {
		assert.NotNil(t, loc.LastChecked, loc.Name)
	}
}

func TestRunCycle_NoAlertedLocation(t *testing.T) {
	f := newFixture(t, nil)
	loc := f.set.Snapshot()[0]
	require.NoError(t, f.set.SetAlerts(loc.ID, false))

	require.True(t, f.checker.RunCycle(context.Background()))
	assert.Empty(t, f.notifier.delivered)
}

func TestRunCycle_ConcurrentTriggerIsDropped(t *testing.T) {
	f := newFixture(t, nil)
	f.fetcher.entered = make(chan struct{}, 1)
	f.fetcher.release = make(chan struct{})
	ctx := context.Background()

	done := make(chan bool)
	go func() { done <- f.checker.RunCycle(ctx) }()

	<-f.fetcher.entered
	assert.True(t, f.checker.IsChecking())
	assert.False(t, f.checker.RunCycle(ctx))

	close(f.fetcher.release)
	assert.True(t, <-done)
	assert.False(t, f.checker.IsChecking())
	assert.Equal(t, 1, f.fetcher.callCount())
}

func TestRun_ChecksOnStartAndEveryInterval(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		f.checker.Run(ctx, 30*time.Minute)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return f.fetcher.callCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(30 * time.Minute)
	assert.Eventually(t, func() bool { return f.fetcher.callCount() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
