// Package weather defines the weather provider contract and the
// snapshot attached to location cards. Weather is a best-effort
// overlay: every caller must render correctly when a snapshot is
// absent.
package weather

import (
	"context"
	"errors"
)

// Snapshot is the current-conditions tuple attached to a location at
// creation or refresh time.
type Snapshot struct {
	TemperatureCelsius int    `json:"temperatureCelsius"`
	Condition          string `json:"condition"`
	Icon               string `json:"icon"`
	Description        string `json:"description"`
}

// Provider returns current conditions for a coordinate pair.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (*Snapshot, error)
}

// ErrProvider wraps upstream weather API failures so callers can
// distinguish them from transport errors with errors.Is.
var ErrProvider = errors.New("weather provider error")
