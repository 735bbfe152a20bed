package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"snowwatch/internal/api"
	"snowwatch/internal/models"
	"snowwatch/internal/tracker"
)

// CycleRunner runs a check cycle, returning false if one is already running
type CycleRunner interface {
	RunCycle(ctx context.Context) bool
}

type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, text string) ([]models.Place, error)
}

type LocationSaver interface {
	SaveLocations(ctx context.Context, locations []models.Location) error
}

type AddLocationRequest struct {
	Name      string  `json:"name" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type AlertsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Server represents the HTTP server
type Server struct {
	locations *tracker.LocationSet
	checker   CycleRunner
	places    PlaceSearcher
	store     LocationSaver
	logger    *zap.SugaredLogger
	validate  *validator.Validate
	router    chi.Router
}

// NewServer creates a new HTTP server
func NewServer(locations *tracker.LocationSet, checker CycleRunner, places PlaceSearcher, store LocationSaver,
	logger *zap.SugaredLogger) *Server {
	s := &Server{
		locations: locations,
		checker:   checker,
		places:    places,
		store:     store,
		logger:    logger,
		validate:  validator.New(),
		router:    chi.NewRouter(),
	}

	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/locations", s.handleListLocations)
	s.router.Post("/locations", s.handleAddLocation)
	s.router.Delete("/locations/{id}", s.handleRemoveLocation)
	s.router.Put("/locations/{id}/alerts", s.handleSetAlerts)
	s.router.Get("/places", s.handleSearchPlaces)
	s.router.Post("/check", s.handleCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler returns the router for use in an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().String(),
	})
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locs := s.locations.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(locs),
		"locations": locs,
	})
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req AddLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "Invalid location: "+err.Error(), http.StatusBadRequest)
		return
	}

	loc := s.locations.Add(req.Name, req.Latitude, req.Longitude)
	s.persist(r.Context())

	writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.locations.Remove(id); err != nil {
		s.writeLocationError(w, err)
		return
	}
	s.persist(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetAlerts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AlertsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "enabled is required", http.StatusBadRequest)
		return
	}

	if err := s.locations.SetAlerts(id, *req.Enabled); err != nil {
		s.writeLocationError(w, err)
		return
	}
	s.persist(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"locations": s.locations.Snapshot(),
	})
}

func (s *Server) handleSearchPlaces(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	places, err := s.places.SearchPlaces(r.Context(), q)
	if errors.Is(err, api.ErrNoResults) {
		places = []models.Place{}
	} else if err != nil {
		s.logger.Warnw("Place search failed", "query", q, "error", err)
		http.Error(w, "place search failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(places),
		"places": places,
	})
}

// handleCheck runs a cycle synchronously. The cycle outlives a dropped client.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if !s.checker.RunCycle(context.WithoutCancel(r.Context())) {
		http.Error(w, "check already in progress", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "completed",
		"timestamp": time.Now(),
		"locations": s.locations.Snapshot(),
	})
}

// persist saves the current set. A failure is logged; the in-memory change stands.
func (s *Server) persist(ctx context.Context) {
	if err := s.store.SaveLocations(ctx, s.locations.Snapshot()); err != nil {
		s.logger.Errorw("Failed to save locations", "error", err)
	}
}

func (s *Server) writeLocationError(w http.ResponseWriter, err error) {
	if errors.Is(err, tracker.ErrLocationNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
