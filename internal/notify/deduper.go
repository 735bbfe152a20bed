package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"

	"snowwatch/internal/models"
)

const dayLayout = "2006-01-02"

// KeyStore persists the fired-notification keys
type KeyStore interface {
	SaveNotificationKeys(ctx context.Context, keys []models.NotificationKey) error
}

// Deduper remembers which (location, date) notifications already fired today.
// Keys from earlier days are dropped whenever the set is saved, so a new day
// makes every pair eligible again.
type Deduper struct {
	mu    sync.Mutex
	keys  map[models.NotificationKey]struct{}
	store KeyStore
	clock clockwork.Clock
}

// NewDeduper creates a deduper persisting through store. A nil clock uses real time.
func NewDeduper(store KeyStore, clock clockwork.Clock) *Deduper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Deduper{
		keys:  make(map[models.NotificationKey]struct{}),
		store: store,
		clock: clock,
	}
}

// Load seeds the set from previously persisted keys, keeping only today's
func (d *Deduper) Load(keys []models.NotificationKey) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, k := range keys {
		d.keys[k] = struct{}{}
	}
	d.pruneLocked()
}

// Key builds the dedup key for a location/date stamped with today's marker
func (d *Deduper) Key(locationName, displayDate string) models.NotificationKey {
	return models.NotificationKey{
		LocationName: locationName,
		DisplayDate:  displayDate,
		FiredOn:      d.today(),
	}
}

// ShouldFire reports whether key has not fired yet. It never records.
func (d *Deduper) ShouldFire(key models.NotificationKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, fired := d.keys[key]
	return !fired
}

// RecordFired marks key as delivered, prunes stale days and persists the set.
// The key stays recorded in memory even if persisting fails.
func (d *Deduper) RecordFired(ctx context.Context, key models.NotificationKey) error {
	d.mu.Lock()
	d.keys[key] = struct{}{}
	d.pruneLocked()
	snapshot := d.snapshotLocked()
	d.mu.Unlock()

	if d.store == nil {
		return nil
	}
	if err := d.store.SaveNotificationKeys(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist notification keys: %w", err)
	}
	return nil
}

// Keys returns the current set, sorted for stable persistence
func (d *Deduper) Keys() []models.NotificationKey {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Deduper) today() string {
	return d.clock.Now().Format(dayLayout)
}

func (d *Deduper) pruneLocked() {
	today := d.today()
	for k := range d.keys {
		if k.FiredOn != today {
			delete(d.keys, k)
		}
	}
}

func (d *Deduper) snapshotLocked() []models.NotificationKey {
	keys := make([]models.NotificationKey, 0, len(d.keys))
	for k := range d.keys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}
