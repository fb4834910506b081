// Package geoloc resolves the device's coordinates. The real
// implementation asks an IP geolocation service, which is the closest
// server-side analog of browser geolocation; Disabled and Static
// providers cover the permission-denied path and tests.
package geoloc

import (
	"context"
	"errors"
)

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Provider returns the device's current coordinates.
type Provider interface {
	Current(ctx context.Context) (Coordinates, error)
}

// Failure taxonomy. Callers contain these and fall back to the default
// location; none of them should ever surface to a user as a crash.
var (
	ErrPermissionDenied = errors.New("geolocation permission denied")
	ErrTimeout          = errors.New("geolocation timed out")
	ErrUnavailable      = errors.New("geolocation unavailable")
)

// Disabled always denies, driving callers down the fallback path.
// Used when the user passes --no-geolocation and in tests.
type Disabled struct{}

// Current implements Provider.
func (Disabled) Current(context.Context) (Coordinates, error) {
	return Coordinates{}, ErrPermissionDenied
}

// Static returns fixed coordinates, for pinning a location in config.
type Static struct {
	Coordinates Coordinates
}

// Current implements Provider.
func (s Static) Current(context.Context) (Coordinates, error) {
	return s.Coordinates, nil
}
