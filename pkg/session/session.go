// Package session holds the dashboard's in-memory state: an ordered
// list of one primary and up to two secondary locations, an optional
// reference-time override, and the theme preference.
//
// The locations slice is copy-on-write: every mutation builds a new
// slice and swaps it under the lock, so a reader holding a slice from
// Locations never observes a partially applied change.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tzdash/tzdash/pkg/directory"
	"github.com/tzdash/tzdash/pkg/geoloc"
	"github.com/tzdash/tzdash/pkg/weather"
)

// PrimaryID is the stable sentinel id of the primary location. The
// primary location cannot be removed and is always first in the list.
const PrimaryID = "primary"

// maxLocations caps the session at one primary plus two secondary
// locations. Attempts beyond the cap are silently ignored.
const maxLocations = 3

// Location is one dashboard entry.
type Location struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Country     string            `json:"country"`
	CountryCode string            `json:"countryCode"`
	Timezone    string            `json:"timezone"`
	Lat         float64           `json:"lat"`
	Lon         float64           `json:"lon"`
	Weather     *weather.Snapshot `json:"weather,omitempty"`
	IsPrimary   bool              `json:"isPrimary"`
}

// PrefStore persists single preference values across sessions.
// *prefs.Store satisfies it; a nil store means nothing persists.
type PrefStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Session is the owned, passed-by-reference state of one dashboard
// run. Construct with New, then call Init once before rendering.
type Session struct {
	logger  *slog.Logger
	geo     geoloc.Provider
	weather weather.Provider
	clock   func() time.Time
	store   PrefStore
	newID   func() string

	mu        sync.RWMutex
	locations []Location
	custom    *time.Time
	dark      bool
}

// Option configures a Session.
type Option func(*Session)

// WithGeolocator sets the geolocation provider (default: disabled).
func WithGeolocator(p geoloc.Provider) Option {
	return func(s *Session) { s.geo = p }
}

// WithWeather sets the weather provider (default: demo data).
func WithWeather(p weather.Provider) Option {
	return func(s *Session) { s.weather = p }
}

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// WithPrefStore attaches a preference store; the theme is loaded from
// it at construction and saved on every toggle.
func WithPrefStore(store PrefStore) Option {
	return func(s *Session) { s.store = store }
}

// WithIDGenerator overrides id generation for secondary locations, for
// tests.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// New creates a Session. The zero configuration is fully usable
// offline: geolocation disabled (fallback place) and demo weather.
func New(logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		logger:  logger,
		geo:     geoloc.Disabled{},
		weather: weather.DemoProvider{},
		clock:   time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store != nil {
		if v, ok, err := s.store.Get("theme"); err != nil {
			logger.Warn("failed to load theme preference", "error", err)
		} else if ok {
			s.dark = v == "dark"
		}
	}

	return s
}

// Init populates the primary location: geolocate, snap to the nearest
// directory place, then fetch weather, in that order. When geolocation
// fails the fallback place becomes primary immediately and its weather
// is fetched in the background, best-effort.
func (s *Session) Init(ctx context.Context) {
	coords, err := s.geo.Current(ctx)
	if err != nil {
		s.logger.Warn("geolocation unavailable, using fallback location", "error", err)
		fallback := directory.London()
		s.replace([]Location{s.fromPlace(fallback, PrimaryID, true, nil)})

		go func() {
			snap, werr := s.weather.Current(context.WithoutCancel(ctx), fallback.Lat, fallback.Lon)
			if werr != nil {
				s.logger.Debug("fallback weather fetch failed", "error", werr)
				return
			}
			s.applyWeather(PrimaryID, snap)
		}()
		return
	}

	place := directory.Nearest(coords.Latitude, coords.Longitude)
	s.logger.Info("geolocated", "lat", coords.Latitude, "lon", coords.Longitude, "nearest", place.Name)

	snap, err := s.weather.Current(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		s.logger.Warn("weather unavailable for primary location", "error", err)
		snap = nil
	}

	primary := s.fromPlace(place, PrimaryID, true, snap)
	// Keep the device's actual coordinates, not the snapped city's.
	primary.Lat = coords.Latitude
	primary.Lon = coords.Longitude
	s.replace([]Location{primary})
}

// AddLocation appends a non-primary location for the given place. At
// the three-location cap this is a silent no-op. A place whose
// timezone does not resolve is rejected: rendering is lenient about
// bad timezones, creation is not.
func (s *Session) AddLocation(ctx context.Context, place directory.Place) error {
	if _, err := time.LoadLocation(place.Timezone); err != nil {
		return fmt.Errorf("unresolvable timezone %q: %w", place.Timezone, err)
	}

	s.mu.RLock()
	full := len(s.locations) >= maxLocations
	s.mu.RUnlock()
	if full {
		s.logger.Debug("location limit reached, ignoring add", "place", place.Name)
		return nil
	}

	snap, err := s.weather.Current(ctx, place.Lat, place.Lon)
	if err != nil {
		s.logger.Warn("weather unavailable for new location", "place", place.Name, "error", err)
		snap = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the write lock; another add may have landed.
	if len(s.locations) >= maxLocations {
		s.logger.Debug("location limit reached, ignoring add", "place", place.Name)
		return nil
	}

	next := make([]Location, len(s.locations), len(s.locations)+1)
	copy(next, s.locations)
	next = append(next, s.fromPlace(place, s.newID(), false, snap))
	s.locations = next
	return nil
}

// RemoveLocation removes the location with the given id. The primary
// location and unknown ids are no-ops.
func (s *Session) RemoveLocation(id string) {
	if id == PrimaryID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Location, 0, len(s.locations))
	for _, loc := range s.locations {
		if loc.ID == id && !loc.IsPrimary {
			continue
		}
		next = append(next, loc)
	}
	if len(next) == len(s.locations) {
		return
	}
	s.locations = next
}

// Locations returns the current location list. The returned slice is
// never mutated after publication; callers must treat it as read-only.
func (s *Session) Locations() []Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locations
}

// Primary returns the primary location and whether the session has
// been initialized yet.
func (s *Session) Primary() (Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.locations) == 0 {
		return Location{}, false
	}
	return s.locations[0], true
}

// SetCustomInstant overrides the session's reference time, driving the
// time-converter view.
func (s *Session) SetCustomInstant(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom = &t
}

// ClearCustomInstant returns the session to live time.
func (s *Session) ClearCustomInstant() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom = nil
}

// Now returns the session's reference time: the custom instant when
// set, the wall clock otherwise.
func (s *Session) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.custom != nil {
		return *s.custom
	}
	return s.clock()
}

// CustomInstantSet reports whether a custom reference time is active.
func (s *Session) CustomInstantSet() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custom != nil
}

// ToggleTheme flips dark mode and persists the choice when a store is
// attached.
func (s *Session) ToggleTheme() {
	s.mu.Lock()
	s.dark = !s.dark
	dark := s.dark
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	theme := "light"
	if dark {
		theme = "dark"
	}
	if err := s.store.Set("theme", theme); err != nil {
		s.logger.Warn("failed to persist theme preference", "error", err)
	}
}

// DarkMode reports whether the dark theme is active.
func (s *Session) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dark
}

// RefreshWeather re-fetches conditions for every current location.
// Each result is applied to the location by id, so a location removed
// mid-refresh silently discards its stale snapshot.
func (s *Session) RefreshWeather(ctx context.Context) {
	for _, loc := range s.Locations() {
		snap, err := s.weather.Current(ctx, loc.Lat, loc.Lon)
		if err != nil {
			s.logger.Debug("weather refresh failed", "location", loc.Name, "error", err)
			continue
		}
		s.applyWeather(loc.ID, snap)
	}
}

// applyWeather attaches a snapshot to the location with the given id.
// Identity match, not positional: if the location is gone the snapshot
// is dropped rather than clobbering whatever took its place.
func (s *Session) applyWeather(id string, snap *weather.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, loc := range s.locations {
		if loc.ID != id {
			continue
		}
		next := make([]Location, len(s.locations))
		copy(next, s.locations)
		next[i].Weather = snap
		s.locations = next
		return
	}
	s.logger.Debug("discarding weather for removed location", "id", id)
}

func (s *Session) replace(locations []Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = locations
}

func (s *Session) fromPlace(p directory.Place, id string, primary bool, snap *weather.Snapshot) Location {
	return Location{
		ID:          id,
		Name:        p.Name,
		Country:     p.Country,
		CountryCode: p.CountryCode,
		Timezone:    p.Timezone,
		Lat:         p.Lat,
		Lon:         p.Lon,
		Weather:     snap,
		IsPrimary:   primary,
	}
}

// ReferenceTimezone is the zone relative-time displays anchor on: the
// primary location's zone once initialized, UTC before that.
func (s *Session) ReferenceTimezone() string {
	if primary, ok := s.Primary(); ok {
		return primary.Timezone
	}
	return "UTC"
}
