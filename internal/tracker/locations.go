// Package tracker holds the ordered set of tracked locations.
//
// At most one location has alerts enabled at any time. Every mutation keeps
// that true, and so does loading persisted state. When the set would become
// empty, the default location is reinserted.
package tracker

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"snowwatch/internal/models"
)

var ErrLocationNotFound = errors.New("location not found")

// DefaultLocation describes the fallback seeded into an empty set
type DefaultLocation struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// LocationSet is safe for concurrent use
type LocationSet struct {
	mu        sync.RWMutex
	locations []models.Location
	fallback  DefaultLocation
}

// NewLocationSet builds the set from persisted locations. A second alerted
// location is demoted, and an empty input is seeded with the fallback.
func NewLocationSet(locations []models.Location, fallback DefaultLocation) *LocationSet {
	s := &LocationSet{fallback: fallback}

	alerted := false
	for _, loc := range locations {
		if loc.AlertsEnabled {
			if alerted {
				loc.AlertsEnabled = false
			}
			alerted = true
		}
		if loc.ID == "" {
			loc.ID = uuid.NewString()
		}
		s.locations = append(s.locations, loc)
	}
	s.seedLocked()
	return s
}

// Snapshot returns a deep-enough copy of the tracked locations, in order
func (s *LocationSet) Snapshot() []models.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Location, len(s.locations))
	for i, loc := range s.locations {
		out[i] = cloneLocation(loc)
	}
	return out
}

func (s *LocationSet) Get(id string) (models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Location{}, ErrLocationNotFound
	}
	return cloneLocation(s.locations[i]), nil
}

// Add tracks a new location. It is alerted only if no other location is.
func (s *LocationSet) Add(name string, latitude, longitude float64) models.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc := models.Location{
		ID:            uuid.NewString(),
		Name:          name,
		Latitude:      latitude,
		Longitude:     longitude,
		AlertsEnabled: !s.anyAlertedLocked(),
	}
	s.locations = append(s.locations, loc)
	return cloneLocation(loc)
}

// Remove stops tracking id. Removing the alerted location leaves none alerted.
func (s *LocationSet) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrLocationNotFound
	}
	s.locations = append(s.locations[:i], s.locations[i+1:]...)
	s.seedLocked()
	return nil
}

// SetAlerts toggles alerts for id; enabling disables every other location
func (s *LocationSet) SetAlerts(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrLocationNotFound
	}
	if enabled {
		for j := range s.locations {
			s.locations[j].AlertsEnabled = false
		}
	}
	s.locations[i].AlertsEnabled = enabled
	return nil
}

// ApplyForecast replaces the cached forecast state of id in one step.
// The alerts flag and identity fields are left as they are.
func (s *LocationSet) ApplyForecast(id string, days []models.ForecastDay, eval models.Evaluation, checkedAt time.Time) (models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Location{}, ErrLocationNotFound
	}

	loc := s.locations[i]
	loc.LastChecked = &checkedAt
	loc.SnowProbability = eval.WindowMaxProbability
	loc.HasSnowExpected = eval.HasSnowInWindow
	loc.Forecast = eval.WindowSummary
	loc.DailyForecasts = append([]models.ForecastDay(nil), days...)
	s.locations[i] = loc

	return cloneLocation(loc), nil
}

func (s *LocationSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.locations)
}

func (s *LocationSet) seedLocked() {
	if len(s.locations) > 0 {
		return
	}
	s.locations = append(s.locations, models.Location{
		ID:            uuid.NewString(),
		Name:          s.fallback.Name,
		Latitude:      s.fallback.Latitude,
		Longitude:     s.fallback.Longitude,
		AlertsEnabled: true,
	})
}

func (s *LocationSet) anyAlertedLocked() bool {
	for _, loc := range s.locations {
		if loc.AlertsEnabled {
			return true
		}
	}
	return false
}

func (s *LocationSet) indexLocked(id string) int {
	for i, loc := range s.locations {
		if loc.ID == id {
			return i
		}
	}
	return -1
}

func cloneLocation(loc models.Location) models.Location {
	if loc.LastChecked != nil {
		t := *loc.LastChecked
		loc.LastChecked = &t
	}
	loc.DailyForecasts = append([]models.ForecastDay(nil), loc.DailyForecasts...)
	return loc
}
