package weather

import (
	"context"
	"fmt"
	"hash/fnv"
)

// DemoProvider serves plausible conditions without any network access,
// for running the dashboard with no API key. Output is a pure function
// of the coordinates so repeated renders of the same location agree.
type DemoProvider struct{}

var demoConditions = []struct {
	condition string
	icon      string
}{
	{"Clear", "01d"},
	{"Cloudy", "02d"},
	{"Partly Cloudy", "03d"},
	{"Rainy", "10d"},
}

// Current returns a deterministic snapshot derived from the coordinates.
func (DemoProvider) Current(_ context.Context, lat, lon float64) (*Snapshot, error) {
	h := fnv.New32a()
	fmt.Fprintf(h, "%.4f:%.4f", lat, lon)
	n := h.Sum32()

	pick := demoConditions[n%uint32(len(demoConditions))]
	return &Snapshot{
		TemperatureCelsius: 5 + int(n/7%30), // 5..34, matching the original demo range
		Condition:          pick.condition,
		Icon:               pick.icon,
		Description:        "pleasant weather",
	}, nil
}
