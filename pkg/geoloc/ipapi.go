package geoloc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const (
	defaultEndpoint = "http://ip-api.com/json/"

	// acquireTimeout bounds how long a lookup may block before the
	// caller falls back to the default location.
	acquireTimeout = 10 * time.Second

	// fixMaxAge is how long a previous fix is served without asking
	// the network again.
	fixMaxAge = 5 * time.Minute
)

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// IPLocator geolocates via the ip-api.com JSON endpoint. A successful
// fix is cached for five minutes; lookups are bounded at ten seconds.
type IPLocator struct {
	endpoint   string
	httpClient HTTPClient
	logger     *slog.Logger

	mu        sync.Mutex
	fix       Coordinates
	fixedAt   time.Time
	haveFixed bool
}

// NewIPLocator creates an IP-based geolocation provider. A nil
// httpClient uses http.DefaultClient; a nil logger uses slog.Default.
func NewIPLocator(httpClient HTTPClient, logger *slog.Logger) *IPLocator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IPLocator{
		endpoint:   defaultEndpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Current implements Provider.
func (l *IPLocator) Current(ctx context.Context) (Coordinates, error) {
	l.mu.Lock()
	if l.haveFixed && time.Since(l.fixedAt) < fixMaxAge {
		fix := l.fix
		l.mu.Unlock()
		l.logger.Debug("serving cached geolocation fix", "age", time.Since(l.fixedAt))
		return fix, nil
	}
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	var coords Coordinates
	err := retry.Do(
		func() error {
			var lookupErr error
			coords, lookupErr = l.lookup(ctx)
			return lookupErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(150*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Debug("retrying geolocation lookup", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Coordinates{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	l.mu.Lock()
	l.fix = coords
	l.fixedAt = time.Now()
	l.haveFixed = true
	l.mu.Unlock()

	return coords, nil
}

func (l *IPLocator) lookup(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, http.NoBody)
	if err != nil {
		return Coordinates{}, err
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			l.logger.Debug("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinates{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geolocation endpoint returned status %d", resp.StatusCode)
	}

	var result struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return Coordinates{}, fmt.Errorf("parsing geolocation response: %w", err)
	}
	if result.Status != "success" {
		return Coordinates{}, retry.Unrecoverable(fmt.Errorf("geolocation lookup failed: %s", result.Message))
	}

	return Coordinates{Latitude: result.Lat, Longitude: result.Lon}, nil
}
