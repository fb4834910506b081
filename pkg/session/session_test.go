package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tzdash/tzdash/pkg/directory"
	"github.com/tzdash/tzdash/pkg/geoloc"
	"github.com/tzdash/tzdash/pkg/weather"
)

// stubWeather is a test double for weather.Provider.
type stubWeather struct {
	snap  *weather.Snapshot
	err   error
	hook  func(lat, lon float64)
	calls atomic.Int32
}

func (s *stubWeather) Current(_ context.Context, lat, lon float64) (*weather.Snapshot, error) {
	s.calls.Add(1)
	if s.hook != nil {
		s.hook(lat, lon)
	}
	return s.snap, s.err
}

var _ weather.Provider = (*stubWeather)(nil)

func testSnapshot() *weather.Snapshot {
	return &weather.Snapshot{TemperatureCelsius: 12, Condition: "Cloudy", Icon: "02d", Description: "overcast"}
}

func sequentialIDs() func() string {
	var n atomic.Int32
	return func() string {
		return fmt.Sprintf("loc-%d", n.Add(1))
	}
}

func tokyo(t *testing.T) directory.Place {
	t.Helper()
	results := directory.Search("Tokyo")
	require.NotEmpty(t, results)
	return results[0]
}

func TestInitFallbackPath(t *testing.T) {
	w := &stubWeather{snap: testSnapshot()}
	s := New(slog.Default(), WithGeolocator(geoloc.Disabled{}), WithWeather(w))

	s.Init(context.Background())

	locs := s.Locations()
	require.Len(t, locs, 1)
	assert.Equal(t, PrimaryID, locs[0].ID)
	assert.Equal(t, "London", locs[0].Name)
	assert.True(t, locs[0].IsPrimary)

	// Fallback weather arrives in the background, applied by id.
	assert.Eventually(t, func() bool {
		locs := s.Locations()
		return len(locs) == 1 && locs[0].Weather != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInitFallbackToleratesWeatherFailure(t *testing.T) {
	w := &stubWeather{err: errors.New("network down")}
	s := New(slog.Default(), WithGeolocator(geoloc.Disabled{}), WithWeather(w))

	s.Init(context.Background())

	locs := s.Locations()
	require.Len(t, locs, 1)
	assert.Nil(t, locs[0].Weather, "card renders without weather")
}

func TestInitGeolocatedPath(t *testing.T) {
	// Coordinates in Shibuya; nearest directory entry is Tokyo.
	geo := geoloc.Static{Coordinates: geoloc.Coordinates{Latitude: 35.66, Longitude: 139.70}}
	w := &stubWeather{snap: testSnapshot()}
	s := New(slog.Default(), WithGeolocator(geo), WithWeather(w))

	s.Init(context.Background())

	locs := s.Locations()
	require.Len(t, locs, 1)
	assert.Equal(t, "Tokyo", locs[0].Name)
	assert.Equal(t, "Asia/Tokyo", locs[0].Timezone)
	assert.True(t, locs[0].IsPrimary)
	require.NotNil(t, locs[0].Weather)

	// The device's real coordinates survive the snap to the city.
	assert.InDelta(t, 35.66, locs[0].Lat, 0.0001)
	assert.InDelta(t, 139.70, locs[0].Lon, 0.0001)
}

func TestAddAndRemoveLocationLifecycle(t *testing.T) {
	w := &stubWeather{snap: testSnapshot()}
	s := New(slog.Default(),
		WithGeolocator(geoloc.Disabled{}),
		WithWeather(w),
		WithIDGenerator(sequentialIDs()),
	)
	s.Init(context.Background())

	require.NoError(t, s.AddLocation(context.Background(), tokyo(t)))

	locs := s.Locations()
	require.Len(t, locs, 2)
	second := locs[1]
	assert.False(t, second.IsPrimary)
	assert.Equal(t, "loc-1", second.ID)
	assert.Equal(t, "Tokyo", second.Name)
	require.NotNil(t, second.Weather)

	// Removing the primary is a protected no-op.
	s.RemoveLocation(PrimaryID)
	assert.Len(t, s.Locations(), 2)

	// Removing an unknown id is a no-op.
	s.RemoveLocation("no-such-id")
	assert.Len(t, s.Locations(), 2)

	s.RemoveLocation(second.ID)
	locs = s.Locations()
	require.Len(t, locs, 1)
	assert.Equal(t, PrimaryID, locs[0].ID)
}

func TestAddLocationCapacity(t *testing.T) {
	w := &stubWeather{snap: testSnapshot()}
	s := New(slog.Default(),
		WithGeolocator(geoloc.Disabled{}),
		WithWeather(w),
		WithIDGenerator(sequentialIDs()),
	)
	s.Init(context.Background())

	paris := directory.Search("Paris")[0]
	sydney := directory.Search("Sydney")[0]

	require.NoError(t, s.AddLocation(context.Background(), tokyo(t)))
	require.NoError(t, s.AddLocation(context.Background(), paris))

	before := s.Locations()
	require.Len(t, before, 3)

	// A fourth location is silently ignored, and the list is
	// reference-stable: no new slice is published.
	require.NoError(t, s.AddLocation(context.Background(), sydney))
	after := s.Locations()
	require.Len(t, after, 3)
	assert.Same(t, &before[0], &after[0])
}

func TestAddLocationRejectsUnresolvableTimezone(t *testing.T) {
	s := New(slog.Default())
	s.Init(context.Background())

	err := s.AddLocation(context.Background(), directory.Place{
		Name: "Nowhere", Country: "Nowhere", Timezone: "Not/AZone",
	})
	assert.Error(t, err)
	assert.Len(t, s.Locations(), 1)
}

func TestAddLocationToleratesWeatherFailure(t *testing.T) {
	w := &stubWeather{err: errors.New("provider down")}
	s := New(slog.Default(), WithGeolocator(geoloc.Disabled{}), WithWeather(w))
	s.Init(context.Background())

	require.NoError(t, s.AddLocation(context.Background(), tokyo(t)))
	locs := s.Locations()
	require.Len(t, locs, 2)
	assert.Nil(t, locs[1].Weather)
}

func TestCustomInstant(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := New(slog.Default(), WithClock(func() time.Time { return fixed }))

	assert.Equal(t, fixed, s.Now())
	assert.False(t, s.CustomInstantSet())

	custom := time.Date(2024, 12, 25, 18, 30, 0, 0, time.UTC)
	s.SetCustomInstant(custom)
	assert.Equal(t, custom, s.Now())
	assert.True(t, s.CustomInstantSet())

	s.ClearCustomInstant()
	assert.Equal(t, fixed, s.Now())
	assert.False(t, s.CustomInstantSet())
}

// fakeStore is an in-memory PrefStore.
type fakeStore struct {
	values map[string]string
}

func (f *fakeStore) Get(key string) (string, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeStore) Set(key, value string) error {
	f.values[key] = value
	return nil
}

func TestThemePersistence(t *testing.T) {
	store := &fakeStore{values: map[string]string{}}

	s := New(slog.Default(), WithPrefStore(store))
	assert.False(t, s.DarkMode(), "no stored preference follows the default")

	s.ToggleTheme()
	assert.True(t, s.DarkMode())
	assert.Equal(t, "dark", store.values["theme"])

	// A new session picks the persisted theme back up.
	s2 := New(slog.Default(), WithPrefStore(store))
	assert.True(t, s2.DarkMode())

	s2.ToggleTheme()
	assert.False(t, s2.DarkMode())
	assert.Equal(t, "light", store.values["theme"])
}

func TestRefreshWeatherAppliesById(t *testing.T) {
	// The geolocated path fetches weather synchronously, so mutating
	// the stub after Init cannot race a background fetch.
	geo := geoloc.Static{Coordinates: geoloc.Coordinates{Latitude: 51.5, Longitude: -0.1}}
	w := &stubWeather{err: errors.New("down during init")}
	s := New(slog.Default(), WithGeolocator(geo), WithWeather(w), WithIDGenerator(sequentialIDs()))
	s.Init(context.Background())
	require.NoError(t, s.AddLocation(context.Background(), tokyo(t)))

	for _, loc := range s.Locations() {
		assert.Nil(t, loc.Weather)
	}

	w.err = nil
	w.snap = testSnapshot()
	s.RefreshWeather(context.Background())

	for _, loc := range s.Locations() {
		assert.NotNil(t, loc.Weather, "refresh fills %s", loc.Name)
	}
}

func TestRefreshWeatherDiscardsSnapshotForRemovedLocation(t *testing.T) {
	geo := geoloc.Static{Coordinates: geoloc.Coordinates{Latitude: 51.5, Longitude: -0.1}}
	w := &stubWeather{snap: testSnapshot()}
	s := New(slog.Default(), WithGeolocator(geo), WithWeather(w), WithIDGenerator(sequentialIDs()))
	s.Init(context.Background())
	require.NoError(t, s.AddLocation(context.Background(), tokyo(t)))

	locs := s.Locations()
	require.Len(t, locs, 2)
	tokyoID := locs[1].ID

	// Remove Tokyo while its refresh fetch is in flight: the stale
	// snapshot must be dropped, not applied to whatever remains.
	w.hook = func(lat, _ float64) {
		if lat > 35 && lat < 36 { // the Tokyo fetch
			s.RemoveLocation(tokyoID)
		}
	}
	s.RefreshWeather(context.Background())

	locs = s.Locations()
	require.Len(t, locs, 1)
	assert.Equal(t, PrimaryID, locs[0].ID)
}
